package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/model"
	"github.com/sakif/apk-store/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` verifies at compile time that *DB implements the
// repository interface — a missing method fails the build immediately instead
// of surfacing at the first call site.
var _ repository.AppRepository = (*DB)(nil)

// appColumns is the canonical column list shared by every SELECT in this file.
// Scan order in scanApp must match this exactly.
const appColumns = `id, name, developer, category, icon, version, size,
	downloads, rating, reviews, description, full_description, whats_new,
	permissions, screenshots, is_featured, apk_file, package_name,
	min_android_version, target_android_version, created_at, updated_at`

// sortColumns maps the sort field names the API accepts to real columns.
// An unknown field means "no ORDER BY" — the listing degrades to the store's
// default ordering rather than erroring.
var sortColumns = map[string]string{
	"name":      "name",
	"developer": "developer",
	"category":  "category",
	"version":   "version",
	"size":      "size",
	"downloads": "downloads",
	"rating":    "rating",
	"reviews":   "reviews",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// scanner abstracts *sql.Row and *sql.Rows so scanApp works with both.
type scanner interface {
	Scan(dest ...any) error
}

// scanApp reads one row (in appColumns order) into a model.App,
// decoding the JSON-encoded permissions and screenshots lists.
func scanApp(s scanner) (*model.App, error) {
	var (
		app                      model.App
		permissions, screenshots string
	)
	err := s.Scan(
		&app.ID, &app.Name, &app.Developer, &app.Category, &app.Icon,
		&app.Version, &app.Size, &app.Downloads, &app.Rating, &app.Reviews,
		&app.Description, &app.FullDescription, &app.WhatsNew,
		&permissions, &screenshots, &app.IsFeatured, &app.APKFile,
		&app.PackageName, &app.MinAndroidVersion, &app.TargetAndroidVersion,
		&app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(permissions), &app.Permissions); err != nil {
		return nil, fmt.Errorf("decoding permissions: %w", err)
	}
	if err := json.Unmarshal([]byte(screenshots), &app.Screenshots); err != nil {
		return nil, fmt.Errorf("decoding screenshots: %w", err)
	}

	return &app, nil
}

// encodeList serializes an ordered string list for storage. A nil slice is
// stored as "[]" so it round-trips as an empty list, not JSON null.
func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Create inserts a new app. The generated ID and timestamps are written back
// into the caller's struct (pointer receiver on the argument).
func (db *DB) Create(ctx context.Context, app *model.App) error {
	app.ID = xid.New().String()

	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now

	permissions, err := encodeList(app.Permissions)
	if err != nil {
		return fmt.Errorf("sqlite: encoding permissions: %w", err)
	}
	screenshots, err := encodeList(app.Screenshots)
	if err != nil {
		return fmt.Errorf("sqlite: encoding screenshots: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO apps (id, name, developer, category, icon, version, size,
			downloads, rating, reviews, description, full_description, whats_new,
			permissions, screenshots, is_featured, apk_file, package_name,
			min_android_version, target_android_version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.Name, app.Developer, app.Category, app.Icon,
		app.Version, app.Size, app.Downloads, app.Rating, app.Reviews,
		app.Description, app.FullDescription, app.WhatsNew,
		permissions, screenshots, app.IsFeatured, app.APKFile,
		app.PackageName, app.MinAndroidVersion, app.TargetAndroidVersion,
		app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating app: %w", err)
	}

	return nil
}

// GetByID retrieves a single app by its ID.
// sql.ErrNoRows translates to the domain's NotFound error, which the HTTP
// layer maps to 404.
func (db *DB) GetByID(ctx context.Context, id string) (*model.App, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+appColumns+` FROM apps WHERE id = ?`, id)

	app, err := scanApp(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("app", id)
		}
		return nil, fmt.Errorf("sqlite: getting app %s: %w", id, err)
	}

	return app, nil
}

// List returns one page of apps plus the total count matching the filter.
//
// Pagination is 1-indexed: skip = (page-1)*limit. The total runs as a second
// COUNT query over the same WHERE clause so the caller can compute totalPages.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.App, int, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	where, args := buildAppFilter(opts.Filter)

	query := `SELECT ` + appColumns + ` FROM apps` + where + orderClause(opts.Sort) +
		` LIMIT ? OFFSET ?`
	listArgs := append(append([]any{}, args...), limit, (page-1)*limit)

	rows, err := db.conn.QueryContext(ctx, query, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing apps: %w", err)
	}
	defer rows.Close()

	apps, err := collectApps(rows, limit)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM apps`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting apps: %w", err)
	}

	return apps, total, nil
}

// buildAppFilter translates an AppFilter into a WHERE clause and its args.
func buildAppFilter(f repository.AppFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Featured != nil {
		conds = append(conds, "is_featured = ?")
		args = append(args, *f.Featured)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderClause translates a "-field"/"field" sort value into SQL.
// The column comes from the sortColumns whitelist, never from the raw input,
// so a crafted sort parameter cannot inject SQL.
func orderClause(sort string) string {
	if sort == "" {
		sort = "-downloads"
	}
	direction := " ASC"
	field := sort
	if strings.HasPrefix(sort, "-") {
		direction = " DESC"
		field = sort[1:]
	}
	col, ok := sortColumns[field]
	if !ok {
		return ""
	}
	return " ORDER BY " + col + direction
}

// collectApps drains a result set into a slice.
func collectApps(rows *sql.Rows, capacity int) ([]model.App, error) {
	apps := make([]model.App, 0, capacity)
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning app row: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating apps: %w", err)
	}
	return apps, nil
}

// Search runs a full-text query against the FTS5 index, ordered by bm25
// relevance (fts5's rank column — smaller is better, so ascending).
func (db *DB) Search(ctx context.Context, query string, limit int) ([]model.App, error) {
	match := ftsQuery(query)
	if match == "" {
		return []model.App{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+qualify(appColumns, "a")+`
		 FROM apps_fts f
		 JOIN apps a ON a.rowid = f.rowid
		 WHERE apps_fts MATCH ?
		 ORDER BY f.rank
		 LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching apps: %w", err)
	}
	defer rows.Close()

	return collectApps(rows, limit)
}

// ftsQuery turns free-form user input into a safe FTS5 MATCH expression.
// Each whitespace-separated term is wrapped in double quotes (with internal
// quotes doubled) so FTS5 operators like NEAR, *, or - in user input are
// treated as literal text. Terms combine with FTS5's implicit AND.
func ftsQuery(input string) string {
	terms := strings.Fields(input)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(term, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// qualify prefixes every column in a comma-separated list with a table alias.
func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// Featured returns up to limit featured apps, most downloaded first, so the
// shelf is stable across runs.
func (db *DB) Featured(ctx context.Context, limit int) ([]model.App, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+appColumns+` FROM apps WHERE is_featured = 1
		 ORDER BY downloads DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing featured apps: %w", err)
	}
	defer rows.Close()
	return collectApps(rows, limit)
}

// Popular returns up to limit apps by descending download count.
func (db *DB) Popular(ctx context.Context, limit int) ([]model.App, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+appColumns+` FROM apps ORDER BY downloads DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing popular apps: %w", err)
	}
	defer rows.Close()
	return collectApps(rows, limit)
}

// Recent returns up to limit apps by most recent update.
func (db *DB) Recent(ctx context.Context, limit int) ([]model.App, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+appColumns+` FROM apps ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recent apps: %w", err)
	}
	defer rows.Close()
	return collectApps(rows, limit)
}

// ByCategory returns every app in a category, unpaginated.
func (db *DB) ByCategory(ctx context.Context, category string) ([]model.App, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+appColumns+` FROM apps WHERE category = ?`, category)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing apps by category: %w", err)
	}
	defer rows.Close()
	return collectApps(rows, 0)
}

// Update writes every mutable field of the app. The service layer owns the
// fetch-then-modify sequence; updated_at must already be refreshed by the
// caller. id, created_at, downloads, rating, and reviews are not written here —
// the last three belong to the system-internal writers below.
func (db *DB) Update(ctx context.Context, app *model.App) error {
	permissions, err := encodeList(app.Permissions)
	if err != nil {
		return fmt.Errorf("sqlite: encoding permissions: %w", err)
	}
	screenshots, err := encodeList(app.Screenshots)
	if err != nil {
		return fmt.Errorf("sqlite: encoding screenshots: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE apps
		 SET name = ?, developer = ?, category = ?, icon = ?, version = ?,
			 size = ?, description = ?, full_description = ?, whats_new = ?,
			 permissions = ?, screenshots = ?, is_featured = ?, apk_file = ?,
			 package_name = ?, min_android_version = ?, target_android_version = ?,
			 updated_at = ?
		 WHERE id = ?`,
		app.Name, app.Developer, app.Category, app.Icon, app.Version,
		app.Size, app.Description, app.FullDescription, app.WhatsNew,
		permissions, screenshots, app.IsFeatured, app.APKFile,
		app.PackageName, app.MinAndroidVersion, app.TargetAndroidVersion,
		app.UpdatedAt,
		app.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating app %s: %w", app.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("app", app.ID)
	}

	return nil
}

// Delete removes an app by its ID.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM apps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting app %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("app", id)
	}

	return nil
}

// IncrementDownloads bumps the download counter in a single UPDATE.
// The increment happens inside the store, not as read-modify-write in Go,
// so two concurrent downloads both land (no lost update).
func (db *DB) IncrementDownloads(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE apps SET downloads = downloads + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing downloads for %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("app", id)
	}

	return nil
}

// RefreshRating recomputes rating and review count from the reviews table in
// one statement. Running the aggregate inside the UPDATE removes the
// read-average-write race: concurrent review writes each recompute from
// whatever is committed, and the final state is always consistent with the
// reviews table.
//
// An app with no reviews gets rating 0 (COALESCE), matching the schema default.
// If the app row doesn't exist the UPDATE affects nothing — review submission
// never checks app existence, so that's not an error.
func (db *DB) RefreshRating(ctx context.Context, appID string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE apps
		 SET rating  = COALESCE((SELECT AVG(rating) FROM reviews WHERE app_id = ?), 0),
			 reviews = (SELECT COUNT(*) FROM reviews WHERE app_id = ?)
		 WHERE id = ?`,
		appID, appID, appID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: refreshing rating for %s: %w", appID, err)
	}
	return nil
}

// Stats aggregates catalog-wide counters. categoryStats groups by the
// App.category value itself, so categories without a Category record still
// appear, and Category records with no apps don't.
func (db *DB) Stats(ctx context.Context) (*model.Stats, error) {
	stats := &model.Stats{CategoryStats: []model.CategoryStat{}}

	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(downloads), 0) FROM apps`,
	).Scan(&stats.TotalApps, &stats.TotalDownloads)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting apps: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM apps GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: aggregating category stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cs model.CategoryStat
		if err := rows.Scan(&cs.Category, &cs.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category stat: %w", err)
		}
		stats.CategoryStats = append(stats.CategoryStats, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating category stats: %w", err)
	}

	return stats, nil
}
