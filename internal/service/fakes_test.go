package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/events"
	"github.com/spec-kit/lead-crm/internal/hierarchy"
	"github.com/spec-kit/lead-crm/internal/observability"
	"github.com/spec-kit/lead-crm/internal/repository"
)

type memAccountStore struct {
	accounts map[string]domain.Account
	nextID   int
}

func newMemAccountStore(accounts ...domain.Account) *memAccountStore {
	store := &memAccountStore{accounts: make(map[string]domain.Account, len(accounts))}
	for _, account := range accounts {
		store.accounts[account.ID] = account
	}
	return store
}

func (s *memAccountStore) Create(ctx context.Context, account *domain.Account) error {
	if account.ID == "" {
		s.nextID++
		account.ID = fmt.Sprintf("acct-%d", s.nextID)
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	s.accounts[account.ID] = *account
	return nil
}

func (s *memAccountStore) Update(ctx context.Context, account *domain.Account) error {
	if _, ok := s.accounts[account.ID]; !ok {
		return pgx.ErrNoRows
	}
	account.UpdatedAt = time.Now()
	s.accounts[account.ID] = *account
	return nil
}

func (s *memAccountStore) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &account, nil
}

func (s *memAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	for _, account := range s.accounts {
		if strings.EqualFold(account.Email, email) && !account.IsDeleted {
			copied := account
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memAccountStore) List(ctx context.Context, filter repository.AccountFilter) ([]domain.Account, error) {
	var wanted map[string]struct{}
	if filter.IDs != nil {
		wanted = make(map[string]struct{}, len(filter.IDs))
		for _, id := range filter.IDs {
			wanted[id] = struct{}{}
		}
	}

	result := []domain.Account{}
	for _, account := range s.accounts {
		if account.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		if filter.Role != nil && account.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && account.IsActive != *filter.IsActive {
			continue
		}
		if filter.ExcludeID != nil && account.ID == *filter.ExcludeID {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[account.ID]; !ok {
				continue
			}
		}
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *memAccountStore) ListDirectReports(ctx context.Context, managerID string) ([]domain.Account, error) {
	result := []domain.Account{}
	for _, account := range s.accounts {
		if account.IsDeleted || account.ReportingTo == nil {
			continue
		}
		if *account.ReportingTo == managerID {
			result = append(result, account)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type memLeadStore struct {
	leads  map[string]domain.Lead
	nextID int
}

func newMemLeadStore(leads ...domain.Lead) *memLeadStore {
	store := &memLeadStore{leads: make(map[string]domain.Lead, len(leads))}
	for _, lead := range leads {
		store.leads[lead.ID] = lead
	}
	return store
}

func (s *memLeadStore) inScope(lead domain.Lead, scope repository.Scope) bool {
	if lead.IsDeleted {
		return false
	}
	if scope.All {
		return true
	}
	for _, id := range scope.AccountIDs {
		if lead.AssignedUser == id {
			return true
		}
	}
	return false
}

func (s *memLeadStore) Create(ctx context.Context, lead *domain.Lead) error {
	s.nextID++
	lead.ID = fmt.Sprintf("lead-%d", s.nextID)
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt
	s.leads[lead.ID] = *lead
	return nil
}

func (s *memLeadStore) Update(ctx context.Context, lead *domain.Lead) error {
	if _, ok := s.leads[lead.ID]; !ok {
		return pgx.ErrNoRows
	}
	lead.UpdatedAt = time.Now()
	s.leads[lead.ID] = *lead
	return nil
}

func (s *memLeadStore) GetInScope(ctx context.Context, id string, scope repository.Scope) (*domain.Lead, error) {
	if scope.IsEmpty() {
		return nil, pgx.ErrNoRows
	}
	lead, ok := s.leads[id]
	if !ok || !s.inScope(lead, scope) {
		return nil, pgx.ErrNoRows
	}
	return &lead, nil
}

func (s *memLeadStore) matching(filter repository.LeadFilter) []domain.Lead {
	if filter.Scope.IsEmpty() {
		return []domain.Lead{}
	}
	result := []domain.Lead{}
	for _, lead := range s.leads {
		if !s.inScope(lead, filter.Scope) {
			continue
		}
		if filter.Status != nil && lead.Status != *filter.Status {
			continue
		}
		if filter.Search != nil {
			needle := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(lead.Name), needle) &&
				!strings.Contains(strings.ToLower(lead.Phone), needle) {
				continue
			}
		}
		result = append(result, lead)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (s *memLeadStore) List(ctx context.Context, filter repository.LeadFilter) ([]domain.Lead, error) {
	result := s.matching(filter)
	if filter.Offset >= len(result) {
		return []domain.Lead{}, nil
	}
	result = result[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *memLeadStore) Count(ctx context.Context, filter repository.LeadFilter) (int64, error) {
	filter.Limit = 0
	filter.Offset = 0
	return int64(len(s.matching(filter))), nil
}

func (s *memLeadStore) CountByAssignee(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, lead := range s.leads {
		if !lead.IsDeleted {
			counts[lead.AssignedUser]++
		}
	}
	return counts, nil
}

func (s *memLeadStore) StatusCounts(ctx context.Context, scope repository.Scope) (map[domain.LeadStatus]int64, error) {
	counts := map[domain.LeadStatus]int64{}
	for _, lead := range s.leads {
		if s.inScope(lead, scope) {
			counts[lead.Status]++
		}
	}
	return counts, nil
}

func (s *memLeadStore) StatusCountsByAssignee(ctx context.Context, scope repository.Scope) ([]repository.AssigneeStatusCount, error) {
	type key struct {
		account string
		status  domain.LeadStatus
	}
	counts := map[key]int64{}
	for _, lead := range s.leads {
		if s.inScope(lead, scope) {
			counts[key{lead.AssignedUser, lead.Status}]++
		}
	}
	result := make([]repository.AssigneeStatusCount, 0, len(counts))
	for k, n := range counts {
		result = append(result, repository.AssigneeStatusCount{AccountID: k.account, Status: k.status, Count: n})
	}
	return result, nil
}

type memCommentStore struct {
	comments []domain.LeadComment
	nextID   int
}

func (s *memCommentStore) Create(ctx context.Context, comment *domain.LeadComment) error {
	s.nextID++
	comment.ID = fmt.Sprintf("comment-%d", s.nextID)
	comment.CreatedAt = time.Now()
	s.comments = append(s.comments, *comment)
	return nil
}

func (s *memCommentStore) ListByLead(ctx context.Context, leadID string) ([]domain.LeadComment, error) {
	result := []domain.LeadComment{}
	for _, comment := range s.comments {
		if comment.LeadID == leadID {
			result = append(result, comment)
		}
	}
	return result, nil
}

type memFollowUpStore struct {
	followUps []domain.FollowUp
	leadNames map[string]string
	owners    map[string]string
	nextID    int
}

func newMemFollowUpStore() *memFollowUpStore {
	return &memFollowUpStore{leadNames: map[string]string{}, owners: map[string]string{}}
}

func (s *memFollowUpStore) Create(ctx context.Context, followUp *domain.FollowUp) error {
	s.nextID++
	followUp.ID = fmt.Sprintf("followup-%d", s.nextID)
	followUp.CreatedAt = time.Now()
	s.followUps = append(s.followUps, *followUp)
	return nil
}

func (s *memFollowUpStore) ListByLead(ctx context.Context, leadID string) ([]domain.FollowUp, error) {
	result := []domain.FollowUp{}
	for _, followUp := range s.followUps {
		if followUp.LeadID == leadID {
			result = append(result, followUp)
		}
	}
	return result, nil
}

func (s *memFollowUpStore) reminder(followUp domain.FollowUp) repository.FollowUpReminder {
	return repository.FollowUpReminder{
		FollowUp:     followUp,
		LeadName:     s.leadNames[followUp.LeadID],
		AssignedUser: s.owners[followUp.LeadID],
	}
}

func (s *memFollowUpStore) ownerInScope(followUp domain.FollowUp, scope repository.Scope) bool {
	if scope.All {
		return true
	}
	owner := s.owners[followUp.LeadID]
	for _, id := range scope.AccountIDs {
		if owner == id {
			return true
		}
	}
	return false
}

func (s *memFollowUpStore) ListDueBetween(ctx context.Context, scope repository.Scope, from, to time.Time) ([]repository.FollowUpReminder, error) {
	result := []repository.FollowUpReminder{}
	for _, followUp := range s.followUps {
		if !followUp.Date.Before(from) && followUp.Date.Before(to) && s.ownerInScope(followUp, scope) {
			result = append(result, s.reminder(followUp))
		}
	}
	return result, nil
}

func (s *memFollowUpStore) ListOverdue(ctx context.Context, scope repository.Scope, before time.Time) ([]repository.FollowUpReminder, error) {
	result := []repository.FollowUpReminder{}
	for _, followUp := range s.followUps {
		if followUp.Date.Before(before) && s.ownerInScope(followUp, scope) {
			result = append(result, s.reminder(followUp))
		}
	}
	return result, nil
}

func (s *memFollowUpStore) ListUnsentDueBefore(ctx context.Context, before time.Time, limit int) ([]repository.FollowUpReminder, error) {
	result := []repository.FollowUpReminder{}
	for _, followUp := range s.followUps {
		if followUp.ReminderSent || !followUp.Date.Before(before) {
			continue
		}
		result = append(result, s.reminder(followUp))
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *memFollowUpStore) MarkReminderSent(ctx context.Context, id string) error {
	for i := range s.followUps {
		if s.followUps[i].ID == id {
			s.followUps[i].ReminderSent = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memActivityStore struct {
	entries   []domain.ActivityEntry
	leadNames map[string]string
	owners    map[string]string
	nextID    int
}

func newMemActivityStore() *memActivityStore {
	return &memActivityStore{leadNames: map[string]string{}, owners: map[string]string{}}
}

func (s *memActivityStore) Create(ctx context.Context, entry *domain.ActivityEntry) error {
	s.nextID++
	entry.ID = fmt.Sprintf("activity-%d", s.nextID)
	entry.CreatedAt = time.Now()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memActivityStore) ListByLead(ctx context.Context, leadID string) ([]domain.ActivityEntry, error) {
	result := []domain.ActivityEntry{}
	for _, entry := range s.entries {
		if entry.LeadID == leadID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (s *memActivityStore) matching(filter repository.ActivityFeedFilter) []repository.ActivityFeedItem {
	if filter.Scope.IsEmpty() {
		return []repository.ActivityFeedItem{}
	}
	result := []repository.ActivityFeedItem{}
	for _, entry := range s.entries {
		if !filter.Scope.All {
			owner := s.owners[entry.LeadID]
			found := false
			for _, id := range filter.Scope.AccountIDs {
				if owner == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.LeadID != nil && entry.LeadID != *filter.LeadID {
			continue
		}
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		result = append(result, repository.ActivityFeedItem{Entry: entry, LeadName: s.leadNames[entry.LeadID]})
	}
	return result
}

func (s *memActivityStore) ListFeed(ctx context.Context, filter repository.ActivityFeedFilter) ([]repository.ActivityFeedItem, error) {
	result := s.matching(filter)
	if filter.Offset >= len(result) {
		return []repository.ActivityFeedItem{}, nil
	}
	result = result[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *memActivityStore) CountFeed(ctx context.Context, filter repository.ActivityFeedFilter) (int64, error) {
	filter.Limit = 0
	filter.Offset = 0
	return int64(len(s.matching(filter))), nil
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) typesSeen() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	types := make([]events.EventType, 0, len(d.events))
	for _, event := range d.events {
		types = append(types, event.Type)
	}
	return types
}

func strPtr(s string) *string { return &s }

func statusPtr(s domain.LeadStatus) *domain.LeadStatus { return &s }

func newTestHierarchy(store *memAccountStore) (*hierarchy.Resolver, *hierarchy.Validator, *hierarchy.Scoper) {
	resolver := hierarchy.NewResolver(store, zap.NewNop(), observability.NewMetrics())
	return resolver, hierarchy.NewValidator(store, resolver), hierarchy.NewScoper(resolver)
}

// crmAccounts builds the standard fixture: admin, manager, team
// leader, and two users under the team leader.
func crmAccounts() *memAccountStore {
	return newMemAccountStore(
		domain.Account{ID: "admin", Name: "Ada", Email: "ada@crm.test", Role: domain.RoleAdmin, IsActive: true},
		domain.Account{ID: "mgr", Name: "Mara", Email: "mara@crm.test", Role: domain.RoleManager, ReportingTo: strPtr("admin"), IsActive: true},
		domain.Account{ID: "tl", Name: "Tia", Email: "tia@crm.test", Role: domain.RoleTeamLeader, ReportingTo: strPtr("mgr"), IsActive: true},
		domain.Account{ID: "u1", Name: "Uma", Email: "uma@crm.test", Role: domain.RoleUser, ReportingTo: strPtr("tl"), IsActive: true},
		domain.Account{ID: "u2", Name: "Ugo", Email: "ugo@crm.test", Role: domain.RoleUser, ReportingTo: strPtr("tl"), IsActive: true},
	)
}

func accountByID(store *memAccountStore, id string) *domain.Account {
	account := store.accounts[id]
	return &account
}
