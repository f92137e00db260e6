// Package service implements the local service collaborators that back
// method invocations. The casefile service owns every method whose
// owning_service is "casefile".
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/casebridge/casebridge/internal/adapter/outbound/memstore"
	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/execctx"
	"github.com/casebridge/casebridge/internal/mapper"
)

// CasefileService implements usecase.ServiceInvoker for casefile methods,
// backed by the casefile store and the casefile mapper.
type CasefileService struct {
	store  *memstore.CasefileStore
	mapper *mapper.CasefileMapper
	logger *slog.Logger
}

// NewCasefileService creates the service.
func NewCasefileService(store *memstore.CasefileStore, m *mapper.CasefileMapper, logger *slog.Logger) *CasefileService {
	return &CasefileService{
		store:  store,
		mapper: m,
		logger: logger.With("component", "casefile_service"),
	}
}

// Invoke dispatches one resolved method call. The execution context supplies
// the acting user and collects the audit trail.
func (s *CasefileService) Invoke(ctx context.Context, method domain.MethodDefinition, ec *execctx.Context, args map[string]any) (map[string]any, error) {
	log := s.logger.With(slog.String("method", method.Name), slog.String("user", ec.UserID()))
	log.Debug("Dispatching casefile method")

	switch method.Name {
	case "create_casefile":
		return s.create(ctx, ec, args)
	case "get_casefile":
		return s.get(ctx, ec, args)
	case "list_casefiles":
		return s.list(ctx, ec)
	case "add_casefile_note":
		return s.addNote(ctx, ec, args)
	case "archive_casefile":
		return s.archive(ctx, ec, args)
	default:
		return nil, fmt.Errorf("casefile service does not implement method %q", method.Name)
	}
}

func (s *CasefileService) create(ctx context.Context, ec *execctx.Context, args map[string]any) (map[string]any, error) {
	payload := mapper.CasefilePayload{
		Title:   stringArg(args, "title"),
		Status:  stringArg(args, "status"),
		OwnerID: ec.UserID(),
		Tags:    stringSliceArg(args, "tags"),
	}
	cf, err := s.mapper.ToDomain(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to map casefile payload: %w", err)
	}
	if err := s.store.Save(ctx, cf); err != nil {
		return nil, fmt.Errorf("failed to save casefile: %w", err)
	}
	ec.RecordEvent("casefile_created", map[string]any{"casefile_id": cf.ID})
	return s.project(cf)
}

func (s *CasefileService) get(ctx context.Context, ec *execctx.Context, args map[string]any) (map[string]any, error) {
	id := stringArg(args, "casefile_id")
	cf, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ec.RecordEvent("casefile_read", map[string]any{"casefile_id": cf.ID})
	return s.project(cf)
}

func (s *CasefileService) list(ctx context.Context, ec *execctx.Context) (map[string]any, error) {
	casefiles, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]any, 0, len(casefiles))
	for _, cf := range casefiles {
		item, err := s.project(cf)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	ec.RecordEvent("casefiles_listed", map[string]any{"count": len(items)})
	return map[string]any{"casefiles": items, "count": len(items)}, nil
}

func (s *CasefileService) addNote(ctx context.Context, ec *execctx.Context, args map[string]any) (map[string]any, error) {
	cf, err := s.store.Get(ctx, stringArg(args, "casefile_id"))
	if err != nil {
		return nil, err
	}
	body := stringArg(args, "body")
	if body == "" {
		return nil, fmt.Errorf("note body must not be empty")
	}
	now := time.Now().UTC()
	note := domain.Note{
		ID:        mapper.NewID("nt", now),
		Body:      body,
		AuthorID:  ec.UserID(),
		CreatedAt: now,
	}
	cf.Notes = append(cf.Notes, note)
	cf.UpdatedAt = now
	if err := s.store.Save(ctx, cf); err != nil {
		return nil, fmt.Errorf("failed to save casefile: %w", err)
	}
	ec.RecordEvent("casefile_note_added", map[string]any{"casefile_id": cf.ID, "note_id": note.ID})
	return map[string]any{"casefile_id": cf.ID, "note_id": note.ID}, nil
}

func (s *CasefileService) archive(ctx context.Context, ec *execctx.Context, args map[string]any) (map[string]any, error) {
	cf, err := s.store.Get(ctx, stringArg(args, "casefile_id"))
	if err != nil {
		return nil, err
	}
	cf.Status = domain.CasefileArchived
	cf.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, cf); err != nil {
		return nil, fmt.Errorf("failed to save casefile: %w", err)
	}
	ec.RecordEvent("casefile_archived", map[string]any{"casefile_id": cf.ID})
	return s.project(cf)
}

// project runs the entity through the outbound mapper and flattens the
// payload to the generic result shape the invoker contract expects.
func (s *CasefileService) project(cf domain.Casefile) (map[string]any, error) {
	payload, err := s.mapper.ToDto(cf)
	if err != nil {
		return nil, fmt.Errorf("failed to project casefile %s: %w", cf.ID, err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

func stringSliceArg(args map[string]any, name string) []string {
	raw, ok := args[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
