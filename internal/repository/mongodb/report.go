package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/report-portal/internal/apperror"
	"github.com/sakif/report-portal/internal/model"
	"github.com/sakif/report-portal/internal/repository"
)

var _ repository.ReportRepository = (*ReportCollection)(nil)

// ReportCollection stores reports in the "reports" collection.
type ReportCollection struct {
	coll *mongo.Collection
}

// reportDocument is the stored shape of a report. Extra is inlined so the
// client's extra keys sit at the top level of the document.
type reportDocument struct {
	ID             string                 `bson:"_id"`
	UserID         string                 `bson:"userId"`
	Title          string                 `bson:"title"`
	ReportType     string                 `bson:"reportType"`
	Date           string                 `bson:"date,omitempty"`
	Description    string                 `bson:"description,omitempty"`
	ImageURL       string                 `bson:"imageUrl,omitempty"`
	Organizer      []string               `bson:"organizer"`
	ResourcePerson []string               `bson:"resourcePerson"`
	CreatedAt      time.Time              `bson:"createdAt"`
	UpdatedAt      time.Time              `bson:"updatedAt"`
	Extra          map[string]interface{} `bson:",inline"`
}

func (r *ReportCollection) Create(ctx context.Context, report *model.Report) error {
	now := time.Now().UTC()
	report.ID = xid.New().String()
	report.CreatedAt = now
	report.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, toDocument(report)); err != nil {
		return fmt.Errorf("mongodb: creating report: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's reports sorted by createdAt desc, _id desc.
func (r *ReportCollection) ListByOwner(ctx context.Context, ownerID string) ([]model.Report, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})

	cursor, err := r.coll.Find(ctx, bson.M{"userId": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing reports: %w", err)
	}

	defer cursor.Close(ctx)

	reports := make([]model.Report, 0)
	for cursor.Next(ctx) {
		report, err := decodeReport(cursor.Current)
		if err != nil {
			return nil, fmt.Errorf("mongodb: decoding reports: %w", err)
		}
		reports = append(reports, *report)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongodb: listing reports: %w", err)
	}
	return reports, nil
}

func (r *ReportCollection) GetByID(ctx context.Context, ownerID, id string) (*model.Report, error) {
	raw, err := r.coll.FindOne(ctx, bson.M{"_id": id, "userId": ownerID}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound("report", id)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: getting report %s: %w", id, err)
	}

	report, err := decodeReport(raw)
	if err != nil {
		return nil, fmt.Errorf("mongodb: decoding report %s: %w", id, err)
	}
	return report, nil
}

// DeleteByID issues one DeleteOne filtered by _id and userId. DeletedCount
// tells us whether this call was the one that removed it.
func (r *ReportCollection) DeleteByID(ctx context.Context, ownerID, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "userId": ownerID})
	if err != nil {
		return fmt.Errorf("mongodb: deleting report %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("report", id)
	}
	return nil
}

func toDocument(r *model.Report) *reportDocument {
	doc := &reportDocument{
		ID:             r.ID,
		UserID:         r.UserID,
		Title:          r.Title,
		ReportType:     r.ReportType,
		Date:           r.Date,
		Description:    r.Description,
		ImageURL:       r.ImageURL,
		Organizer:      r.Organizer,
		ResourcePerson: r.ResourcePerson,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}

	// The inline map must not collide with a struct key or the encoder fails.
	if len(r.Extra) > 0 {
		doc.Extra = make(map[string]interface{}, len(r.Extra))
		for k, v := range r.Extra {
			doc.Extra[k] = v
		}
		for _, k := range model.KnownReportFields {
			delete(doc.Extra, k)
		}
		delete(doc.Extra, "_id")
	}
	return doc
}

// storedReportFields are the document keys that map onto reportDocument.
var storedReportFields = map[string]bool{
	"_id": true, "userId": true, "title": true, "reportType": true,
	"date": true, "description": true, "imageUrl": true, "organizer": true,
	"resourcePerson": true, "createdAt": true, "updatedAt": true,
}

// decodeReport splits a stored document by exact key before decoding. The
// struct decoder also matches keys like "Date" against the date field, so
// only the exact stored keys reach it and everything else goes to Extra.
func decodeReport(raw bson.Raw) (*model.Report, error) {
	elems, err := raw.Elements()
	if err != nil {
		return nil, err
	}

	known := make(bson.D, 0, len(storedReportFields))
	extra := make(map[string]interface{})
	for _, e := range elems {
		key := e.Key()
		if storedReportFields[key] {
			known = append(known, bson.E{Key: key, Value: e.Value()})
			continue
		}
		var v interface{}
		if err := e.Value().Unmarshal(&v); err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		extra[key] = v
	}

	b, err := bson.Marshal(known)
	if err != nil {
		return nil, err
	}
	var doc reportDocument
	if err := bson.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	doc.Extra = extra
	return fromDocument(&doc), nil
}

func fromDocument(doc *reportDocument) *model.Report {
	r := &model.Report{
		ID:             doc.ID,
		UserID:         doc.UserID,
		Title:          doc.Title,
		ReportType:     doc.ReportType,
		Date:           doc.Date,
		Description:    doc.Description,
		ImageURL:       doc.ImageURL,
		Organizer:      doc.Organizer,
		ResourcePerson: doc.ResourcePerson,
		CreatedAt:      doc.CreatedAt.UTC(),
		UpdatedAt:      doc.UpdatedAt.UTC(),
	}
	if len(doc.Extra) > 0 {
		r.Extra = make(map[string]any, len(doc.Extra))
		for k, v := range doc.Extra {
			r.Extra[k] = plainValue(v)
		}
	}
	return r
}

// plainValue converts the driver's BSON container types into the plain Go
// maps and slices encoding/json understands.
//
//	primitive.D{{"a", 1}}  → map[string]any{"a": 1}
//	primitive.A{"x", "y"}  → []any{"x", "y"}
//	primitive.DateTime     → time.Time
func plainValue(v interface{}) any {
	switch val := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(val))
		for _, e := range val {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[k] = plainValue(inner)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[k] = plainValue(inner)
		}
		return m
	case primitive.A:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = plainValue(inner)
		}
		return out
	case []interface{}:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = plainValue(inner)
		}
		return out
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.ObjectID:
		return val.Hex()
	default:
		return val
	}
}
