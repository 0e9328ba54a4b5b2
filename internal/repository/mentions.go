package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/joseph-ayodele/project-geotagger/constants"
	"github.com/joseph-ayodele/project-geotagger/internal/common"
	"github.com/joseph-ayodele/project-geotagger/internal/entity"
)

const mentionsTable = "mentions"

var mentionColumns = []string{
	"id", "pdf_file", "page_number", "project_name", "context_sentence", "lat", "lon", "source",
}

type MentionRepository interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, rec entity.MentionRecord) (uuid.UUID, error)
	List(ctx context.Context, pdfFile string) ([]entity.MentionRecord, error)
	ListUnresolved(ctx context.Context) ([]entity.MentionRecord, error)
	SetCoordinates(ctx context.Context, id uuid.UUID, coords entity.Coordinates, source constants.ResolutionSource) error
}

type mentionRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewMentionRepository(db *DB, logger *slog.Logger) MentionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &mentionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *mentionRepository) EnsureSchema(ctx context.Context) error {
	b := r.db.Builder()
	q, args := b.CreateTable(mentionsTable).IfNotExists().
		Columns(
			b.Column("id").Type("varchar(36)").Attr("NOT NULL"),
			b.Column("pdf_file").Type("text").Attr("NOT NULL"),
			b.Column("page_number").Type("integer").Attr("NOT NULL"),
			b.Column("project_name").Type("text").Attr("NOT NULL"),
			b.Column("context_sentence").Type("text").Attr("NOT NULL"),
			b.Column("lat").Type("double precision"),
			b.Column("lon").Type("double precision"),
			b.Column("source").Type("varchar(16)").Attr("NOT NULL"),
			b.Column("updated_at").Type("bigint").Attr("NOT NULL"),
		).
		PrimaryKey("id").
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		return common.DatabaseFailure("create mentions table", err)
	}
	return nil
}

// Upsert stores the record under its deterministic ID. Stored coordinates
// survive a re-upsert of the same mention without coordinates.
func (r *mentionRepository) Upsert(ctx context.Context, rec entity.MentionRecord) (uuid.UUID, error) {
	v := common.NewValidator().
		Field("pdf_file", rec.PDFFile, common.Required).
		Field("project_name", rec.ProjectName, common.Required, common.MaxLength(512)).
		Field("page_number", rec.PageNumber, common.Positive)
	if v.HasErrors() {
		return uuid.Nil, fmt.Errorf("%w: %s", common.ErrInvalidInput, v.ErrorMessage())
	}

	id := rec.ID()
	var lat, lon any
	source := rec.Source
	if rec.Coordinates != nil {
		lat, lon = rec.Coordinates.Lat, rec.Coordinates.Lon
		if source == "" {
			source = string(constants.SourcePreset)
		}
	} else {
		source = string(constants.SourceUnresolved)
	}

	q, args := r.db.Builder().Insert(mentionsTable).
		Columns(append(mentionColumns, "updated_at")...).
		Values(id.String(), rec.PDFFile, rec.PageNumber, rec.ProjectName, rec.ContextSentence, lat, lon, source, time.Now().UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("updated_at")
				if rec.Coordinates != nil {
					u.SetExcluded("lat")
					u.SetExcluded("lon")
					u.SetExcluded("source")
				}
			}),
		).
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("repo.mention.upsert.error", "id", id, "pdf_file", rec.PDFFile, "error", err)
		return uuid.Nil, common.DatabaseFailure("upsert mention", err)
	}
	r.logger.Debug("repo.mention.upsert.ok", "id", id, "pdf_file", rec.PDFFile, "page", rec.PageNumber)
	return id, nil
}

// List returns stored mentions ordered by file and page. An empty pdfFile lists everything.
func (r *mentionRepository) List(ctx context.Context, pdfFile string) ([]entity.MentionRecord, error) {
	b := r.db.Builder()
	s := b.Select(mentionColumns...).From(b.Table(mentionsTable))
	if pdfFile != "" {
		s.Where(entsql.EQ("pdf_file", pdfFile))
	}
	return r.query(ctx, s)
}

func (r *mentionRepository) ListUnresolved(ctx context.Context) ([]entity.MentionRecord, error) {
	b := r.db.Builder()
	s := b.Select(mentionColumns...).From(b.Table(mentionsTable)).Where(entsql.IsNull("lat"))
	return r.query(ctx, s)
}

func (r *mentionRepository) SetCoordinates(ctx context.Context, id uuid.UUID, coords entity.Coordinates, source constants.ResolutionSource) error {
	if !coords.Valid() {
		return fmt.Errorf("%w: coordinates out of range: %s", common.ErrInvalidInput, coords)
	}
	q, args := r.db.Builder().Update(mentionsTable).
		Set("lat", coords.Lat).
		Set("lon", coords.Lon).
		Set("source", string(source)).
		Set("updated_at", time.Now().UnixMilli()).
		Where(entsql.EQ("id", id.String())).
		Query()
	var res sql.Result
	if err := r.db.Driver.Exec(ctx, q, args, &res); err != nil {
		return common.DatabaseFailure("set mention coordinates", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.DatabaseFailure("set mention coordinates", err)
	}
	if n == 0 {
		return fmt.Errorf("mention %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *mentionRepository) query(ctx context.Context, s *entsql.Selector) ([]entity.MentionRecord, error) {
	s.OrderBy("pdf_file", "page_number", "project_name")
	q, args := s.Query()
	rows := &entsql.Rows{}
	if err := r.db.Driver.Query(ctx, q, args, rows); err != nil {
		return nil, common.DatabaseFailure("query mentions", err)
	}
	defer rows.Close()

	var out []entity.MentionRecord
	for rows.Next() {
		var (
			id       string
			rec      entity.MentionRecord
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&id, &rec.PDFFile, &rec.PageNumber, &rec.ProjectName, &rec.ContextSentence, &lat, &lon, &rec.Source); err != nil {
			return nil, common.DatabaseFailure("scan mention", err)
		}
		if lat.Valid && lon.Valid {
			rec.Coordinates = &entity.Coordinates{Lat: lat.Float64, Lon: lon.Float64}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DatabaseFailure("iterate mentions", err)
	}
	return out, nil
}
