package observability_service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lcabral/docqa/rag_type"
)

var ErrTemplateNotFound = errors.New("prompt template not found")

// PromptRegistry stores versioned prompt templates. Per template key,
// versions increase monotonically and at most one is active; creating a new
// active version deactivates the prior one in the same transaction.
type PromptRegistry struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPromptRegistry(db *pgxpool.Pool, logger *slog.Logger) *PromptRegistry {
	return &PromptRegistry{
		db:     db,
		logger: logger,
	}
}

// CreateVersion writes version max+1 as the active row and flips the prior
// active row to inactive, atomically. Concurrent creates for the same key are
// serialized with a per-key advisory lock; different keys proceed
// independently.
func (r *PromptRegistry) CreateVersion(ctx context.Context, templateKey, content, description string) (*rag_type.PromptTemplate, error) {
	if templateKey == "" {
		return nil, fmt.Errorf("template key must not be empty")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, templateKey); err != nil {
		return nil, fmt.Errorf("failed to lock template key: %w", err)
	}

	var maxVersion int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM prompt_templates WHERE template_key = $1`,
		templateKey).Scan(&maxVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to determine latest version: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE prompt_templates SET is_active = false WHERE template_key = $1 AND is_active`,
		templateKey); err != nil {
		return nil, fmt.Errorf("failed to deactivate previous version: %w", err)
	}

	tpl := &rag_type.PromptTemplate{
		TemplateKey: templateKey,
		Version:     maxVersion + 1,
		Content:     content,
		Description: description,
		IsActive:    true,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO prompt_templates (template_key, version, content, description, is_active)
		VALUES ($1, $2, $3, $4, true)
		RETURNING id, created_at`,
		tpl.TemplateKey, tpl.Version, tpl.Content, tpl.Description).
		Scan(&tpl.ID, &tpl.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert prompt version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit prompt version: %w", err)
	}

	r.logger.Info("Created prompt template version",
		slog.String("template_key", templateKey),
		slog.Int("version", tpl.Version))
	return tpl, nil
}

// GetActive returns the active template for the key, or ErrTemplateNotFound
// if none exists.
func (r *PromptRegistry) GetActive(ctx context.Context, templateKey string) (*rag_type.PromptTemplate, error) {
	var tpl rag_type.PromptTemplate
	err := r.db.QueryRow(ctx, `
		SELECT id, template_key, version, content, description, is_active, created_at
		FROM prompt_templates
		WHERE template_key = $1 AND is_active
		ORDER BY version DESC
		LIMIT 1`, templateKey).
		Scan(&tpl.ID, &tpl.TemplateKey, &tpl.Version, &tpl.Content,
			&tpl.Description, &tpl.IsActive, &tpl.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active template: %w", err)
	}
	return &tpl, nil
}

// ListAll returns all versions, newest first, optionally filtered by key.
func (r *PromptRegistry) ListAll(ctx context.Context, templateKey string) ([]rag_type.PromptTemplate, error) {
	query := `
		SELECT id, template_key, version, content, description, is_active, created_at
		FROM prompt_templates`
	args := []interface{}{}
	if templateKey != "" {
		query += ` WHERE template_key = $1`
		args = append(args, templateKey)
	}
	query += ` ORDER BY template_key ASC, version DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := make([]rag_type.PromptTemplate, 0)
	for rows.Next() {
		var tpl rag_type.PromptTemplate
		if err := rows.Scan(&tpl.ID, &tpl.TemplateKey, &tpl.Version, &tpl.Content,
			&tpl.Description, &tpl.IsActive, &tpl.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

// EnsureDefault creates an initial active v1 for the key if the key has no
// versions yet. Existing versions, active or not, are left untouched.
func (r *PromptRegistry) EnsureDefault(ctx context.Context, templateKey, content, description string) error {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM prompt_templates WHERE template_key = $1)`,
		templateKey).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for existing template: %w", err)
	}
	if exists {
		return nil
	}

	_, err = r.CreateVersion(ctx, templateKey, content, description)
	return err
}
