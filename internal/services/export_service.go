package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/utils"
)

// sensitiveFields are removed from every exported document, at any depth.
var sensitiveFields = map[string]bool{
	"password":           true,
	"token":              true,
	"bootstrapExpiresAt": true,
	"bootstrapUsedAt":    true,
}

// maxExportConcurrency bounds parallel collection reads.
const maxExportConcurrency = 4

// IExportService produces admin data exports.
type IExportService interface {
	DumpJSON(ctx context.Context, w io.Writer) error
	CollectionXLSX(ctx context.Context, collection string, w io.Writer) error
}

type exportService struct {
	db  *mongo.Database
	now func() time.Time
}

// NewExportService creates a new ExportService.
func NewExportService(db *mongo.Database) IExportService {
	return &exportService{db: db, now: time.Now}
}

// DatabaseDump is the JSON document produced by DumpJSON.
type DatabaseDump struct {
	ExportedAt  time.Time                `json:"exportedAt"`
	Collections map[string][]interface{} `json:"collections"`
}

func (s *exportService) readCollection(ctx context.Context, name string) ([]interface{}, error) {
	cursor, err := s.db.Collection(name).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", name, err)
	}
	defer cursor.Close(ctx)

	docs := []interface{}{}
	for cursor.Next(ctx) {
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", name, err)
		}
		docs = append(docs, sanitize(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", name, err)
	}
	return docs, nil
}

// DumpJSON writes every portal collection, with credentials stripped.
func (s *exportService) DumpJSON(ctx context.Context, w io.Writer) error {
	results := make([][]interface{}, len(db.AllCollections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxExportConcurrency)
	for i, name := range db.AllCollections {
		i, name := i, name
		g.Go(func() error {
			docs, err := s.readCollection(gctx, name)
			if err != nil {
				return err
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	dump := DatabaseDump{ExportedAt: s.now().UTC(), Collections: make(map[string][]interface{}, len(results))}
	for i, name := range db.AllCollections {
		dump.Collections[name] = results[i]
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		return fmt.Errorf("error writing dump: %w", err)
	}
	return nil
}

// CollectionXLSX writes one collection as a spreadsheet. The header row is the
// union of top-level keys with _id first; nested values are written as JSON.
func (s *exportService) CollectionXLSX(ctx context.Context, collection string, w io.Writer) error {
	if !db.IsKnownCollection(collection) {
		return ErrUnknownCollection
	}
	docs, err := s.readCollection(ctx, collection)
	if err != nil {
		return err
	}
	rows := make([]orderedDoc, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, d.(orderedDoc))
	}
	header := headerFor(rows)

	f := excelize.NewFile()
	defer f.Close()
	sheet := collection
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("error naming sheet: %w", err)
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	for r, doc := range rows {
		values := doc.toMap()
		row := make([]interface{}, len(header))
		for i, h := range header {
			row[i] = cellValue(values[h])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("error writing row %d: %w", r+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing spreadsheet: %w", err)
	}
	return nil
}

// orderedDoc keeps document key order through JSON encoding.
type orderedDoc []orderedField

type orderedField struct {
	Key   string
	Value interface{}
}

func (d orderedDoc) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, f := range d {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

func (d orderedDoc) toMap() map[string]interface{} {
	m := make(map[string]interface{}, len(d))
	for _, f := range d {
		m[f.Key] = f.Value
	}
	return m
}

func headerFor(rows []orderedDoc) []string {
	seen := map[string]bool{}
	var keys []string
	for _, r := range rows {
		for _, f := range r {
			if !seen[f.Key] {
				seen[f.Key] = true
				keys = append(keys, f.Key)
			}
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i] == "_id" || keys[j] == "_id" {
			return keys[i] == "_id"
		}
		return keys[i] < keys[j]
	})
	return keys
}

func cellValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return ""
	case orderedDoc, []interface{}:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return t
	}
}

// sanitize converts decoded BSON into JSON-friendly values, dropping sensitive
// fields. SixIDs become their string form and dates become time.Time.
func sanitize(v interface{}) interface{} {
	switch t := v.(type) {
	case bson.D:
		out := make(orderedDoc, 0, len(t))
		for _, e := range t {
			if sensitiveFields[e.Key] {
				continue
			}
			out = append(out, orderedField{Key: e.Key, Value: sanitize(e.Value)})
		}
		return out
	case bson.M:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := make(bson.D, 0, len(keys))
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: t[k]})
		}
		return sanitize(d)
	case bson.A:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = sanitize(e)
		}
		return out
	case primitive.Binary:
		if len(t.Data) == 6 {
			var id utils.SixID
			copy(id[:], t.Data)
			return id.String()
		}
		return t.Data
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Decimal128:
		return t.String()
	default:
		return t
	}
}
