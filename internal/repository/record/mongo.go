// Package record reads canonical course and university records from the
// record store. Two drivers are provided: MongoDB and PostgreSQL.
package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kailas-cloud/coursedex/internal/domain"
	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
)

// Collection names in the catalog database.
const (
	CoursesCollection      = "courses"
	UniversitiesCollection = "universities"
)

// OpenMongo connects to MongoDB and verifies connectivity.
func OpenMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// MongoRepo reads records from the courses and universities collections.
type MongoRepo struct {
	client       *mongo.Client
	courses      *mongo.Collection
	universities *mongo.Collection
	timeout      time.Duration
}

// NewMongo creates a repository over the named database.
// timeout bounds each call; zero disables it.
func NewMongo(client *mongo.Client, database string, timeout time.Duration) *MongoRepo {
	d := client.Database(database)
	return &MongoRepo{
		client:       client,
		courses:      d.Collection(CoursesCollection),
		universities: d.Collection(UniversitiesCollection),
		timeout:      timeout,
	}
}

// Ping checks connectivity.
func (r *MongoRepo) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Ping(ctx, readpref.Primary()) //nolint:wrapcheck // health probe
}

// Close disconnects the client.
func (r *MongoRepo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx) //nolint:wrapcheck // shutdown
}

// ListCourses returns every course ordered by uniqueId. Documents that do not
// decode are returned as *domain.MappingError in invalid and left out of
// courses.
func (r *MongoRepo) ListCourses(ctx context.Context) (courses []domrec.Course, invalid []error, err error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "uniqueId", Value: 1}})
	cur, err := r.courses.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("find courses: %w", err)
	}
	courses, invalid, err = decodeEach[domrec.Course](ctx, cur, "uniqueId")
	if err != nil {
		return nil, nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, invalid, nil
}

// GetCourse returns the course with the given uniqueId.
func (r *MongoRepo) GetCourse(ctx context.Context, id string) (domrec.Course, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res := r.courses.FindOne(ctx, bson.D{{Key: "uniqueId", Value: id}})
	if err := res.Err(); errors.Is(err, mongo.ErrNoDocuments) {
		return domrec.Course{}, fmt.Errorf("course %s: %w", id, domain.ErrNotFound)
	} else if err != nil {
		return domrec.Course{}, fmt.Errorf("find course %s: %w", id, err)
	}
	var c domrec.Course
	if err := res.Decode(&c); err != nil {
		return domrec.Course{}, domain.NewMappingError(id, "decode: "+err.Error())
	}
	return c, nil
}

// ListUniversities returns every university ordered by uniqueCode, with
// undecodable documents reported in invalid.
func (r *MongoRepo) ListUniversities(ctx context.Context) (universities []domrec.University, invalid []error, err error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "uniqueCode", Value: 1}})
	cur, err := r.universities.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("find universities: %w", err)
	}
	universities, invalid, err = decodeEach[domrec.University](ctx, cur, "uniqueCode")
	if err != nil {
		return nil, nil, fmt.Errorf("iterate universities: %w", err)
	}
	return universities, invalid, nil
}

// decodeEach decodes the cursor one document at a time so a single malformed
// record does not hide the rest. idKey names the field reported as the id of
// a failed document.
func decodeEach[T any](ctx context.Context, cur *mongo.Cursor, idKey string) ([]T, []error, error) {
	defer func() { _ = cur.Close(context.WithoutCancel(ctx)) }()

	out := []T{}
	var invalid []error
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			id, _ := cur.Current.Lookup(idKey).StringValueOK()
			invalid = append(invalid, domain.NewMappingError(id, "decode: "+err.Error()))
			continue
		}
		out = append(out, v)
	}
	if err := cur.Err(); err != nil {
		return nil, nil, err //nolint:wrapcheck // wrapped by the caller
	}
	return out, invalid, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
