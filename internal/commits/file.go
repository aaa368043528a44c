package commits

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kaptinlin/jsonschema"
	"github.com/tidwall/gjson"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
	"github.com/quickshoe/Replit-Export-sub000/internal/timestamp"
)

// commitListSchema describes a commits file: an array of
// {"message": "...", "timestamp": "2025-03-14T10:00:00Z" | null}.
const commitListSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["message"],
    "properties": {
      "message": {"type": "string"},
      "timestamp": {"type": ["string", "null"]}
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		schema, schemaErr = compiler.Compile([]byte(commitListSchema))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// JSONFile lists commits from a JSON file validated against the commit
// list schema. Timestamps without a zone are read in Location.
type JSONFile struct {
	Path     string
	Location *time.Location
}

func (f JSONFile) List(ctx context.Context) ([]feed.CommitRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	return DecodeIn(data, f.Location)
}

// Decode validates and decodes a commit list document, reading zoneless
// timestamps as UTC.
func Decode(data []byte) ([]feed.CommitRecord, error) {
	return DecodeIn(data, time.UTC)
}

// DecodeIn is Decode with an explicit zone for zoneless timestamps. A
// timestamp that does not parse leaves that commit undated.
func DecodeIn(data []byte, loc *time.Location) ([]feed.CommitRecord, error) {
	s, err := loadSchema()
	if err != nil {
		return nil, err
	}
	result := s.ValidateJSON(data)
	if !result.IsValid() {
		return nil, fmt.Errorf("schema validation failed: %v", result.Errors)
	}
	records := gjson.ParseBytes(data).Array()
	commits := make([]feed.CommitRecord, 0, len(records))
	for _, rec := range records {
		c := feed.CommitRecord{Message: rec.Get("message").String()}
		if ts, ok := timestamp.ParseMachine(rec.Get("timestamp").String(), loc); ok {
			c.Timestamp = ts
		}
		commits = append(commits, c)
	}
	return commits, nil
}
