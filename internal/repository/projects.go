package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/joseph-ayodele/project-geotagger/internal/common"
	"github.com/joseph-ayodele/project-geotagger/internal/entity"
	"github.com/joseph-ayodele/project-geotagger/internal/geo"
)

const projectsTable = "project_locations"

// ProjectRepository persists the reference coordinate table.
type ProjectRepository interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, loc entity.ProjectLocation) error
	LoadTable(ctx context.Context) (*geo.Table, error)
}

type projectRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewProjectRepository(db *DB, logger *slog.Logger) ProjectRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &projectRepository{db: db, logger: logger}
}

func (r *projectRepository) EnsureSchema(ctx context.Context) error {
	b := r.db.Builder()
	q, args := b.CreateTable(projectsTable).IfNotExists().
		Columns(
			b.Column("name").Type("varchar(512)").Attr("NOT NULL"),
			b.Column("lat").Type("double precision").Attr("NOT NULL"),
			b.Column("lon").Type("double precision").Attr("NOT NULL"),
			b.Column("updated_at").Type("bigint").Attr("NOT NULL"),
		).
		PrimaryKey("name").
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		return common.DatabaseFailure("create project_locations table", err)
	}
	return nil
}

func (r *projectRepository) Upsert(ctx context.Context, loc entity.ProjectLocation) error {
	v := common.NewValidator().Field("name", loc.Name, common.Required, common.MaxLength(512))
	if v.HasErrors() {
		return fmt.Errorf("%w: %s", common.ErrInvalidInput, v.ErrorMessage())
	}
	if !loc.Coordinates.Valid() {
		return fmt.Errorf("%w: coordinates out of range for %q: %s", common.ErrInvalidInput, loc.Name, loc.Coordinates)
	}
	q, args := r.db.Builder().Insert(projectsTable).
		Columns("name", "lat", "lon", "updated_at").
		Values(loc.Name, loc.Coordinates.Lat, loc.Coordinates.Lon, time.Now().UnixMilli()).
		OnConflict(entsql.ConflictColumns("name"), entsql.ResolveWithNewValues()).
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		return common.DatabaseFailure("upsert project location", err)
	}
	r.logger.Debug("repo.project.upsert.ok", "name", loc.Name, "coordinates", loc.Coordinates.String())
	return nil
}

// LoadTable reads every stored location into a lookup table.
func (r *projectRepository) LoadTable(ctx context.Context) (*geo.Table, error) {
	b := r.db.Builder()
	q, args := b.Select("name", "lat", "lon").From(b.Table(projectsTable)).OrderBy("name").Query()
	rows := &entsql.Rows{}
	if err := r.db.Driver.Query(ctx, q, args, rows); err != nil {
		return nil, common.DatabaseFailure("query project locations", err)
	}
	defer rows.Close()

	entries := make(map[string]entity.Coordinates)
	for rows.Next() {
		var (
			name string
			c    entity.Coordinates
		)
		if err := rows.Scan(&name, &c.Lat, &c.Lon); err != nil {
			return nil, common.DatabaseFailure("scan project location", err)
		}
		entries[name] = c
	}
	if err := rows.Err(); err != nil {
		return nil, common.DatabaseFailure("iterate project locations", err)
	}
	r.logger.Info("repo.project.table.loaded", "entries", len(entries))
	return geo.NewTable(entries), nil
}
