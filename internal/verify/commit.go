package verify

import (
	"context"
	"fmt"
	"time"

	"oakwood/internal/activity"
	"oakwood/internal/catalog"
	"oakwood/internal/services"
)

// Result is the outcome of a settled session: the committed record, the
// applied patch, and the per-field decision record. AuditErr carries an
// audit-append failure without retracting the committed data change.
type Result struct {
	State     State
	Book      *catalog.Book
	Patch     map[string]any
	Updated   []FieldID
	Skipped   []FieldID
	Decisions map[FieldID]Decision
	AuditErr  error
}

// CommitOutcome is returned by Commit. AuditErr is reported separately
// because the data update has already succeeded when the audit append
// fails.
type CommitOutcome struct {
	Book     *catalog.Book
	AuditErr error
}

// allowedPatchFields is the closed set a commit may touch: the verifiable
// attributes plus the verification stamp columns.
var allowedPatchFields = func() map[string]struct{} {
	allowed := map[string]struct{}{
		"verified":      {},
		"last_verified": {},
	}
	for _, spec := range verifiableFields {
		allowed[string(spec.ID)] = struct{}{}
	}
	return allowed
}()

// verificationStamp starts a patch with the mandatory verified flag and
// verification date.
func (v *Verifier) verificationStamp() map[string]any {
	now := v.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return map[string]any{
		"verified":      true,
		"last_verified": today,
	}
}

// Commit applies the patch as one atomic update and appends an audit
// entry. A patch naming a field outside the verifiable set fails before
// any mutation. An identifier that no longer resolves to a record yields a
// not-found marker, since the record may have been deleted while the
// session ran.
func (v *Verifier) Commit(ctx context.Context, isbn string, patch map[string]any, updated, skipped []FieldID) (*CommitOutcome, error) {
	for field := range patch {
		if _, ok := allowedPatchFields[field]; !ok {
			return nil, fmt.Errorf("%w: %s is not a verifiable field", catalog.ErrInvalidField, field)
		}
	}

	ok, err := v.store.UpdateFields(ctx, isbn, patch)
	if err != nil {
		return nil, fmt.Errorf("apply verification patch: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "verify", "commit",
			fmt.Sprintf("no catalogue record for isbn %s", isbn), nil)
	}

	book, err := v.store.GetByISBN(ctx, isbn)
	if err != nil {
		return nil, fmt.Errorf("read back committed record: %w", err)
	}

	outcome := &CommitOutcome{Book: book}
	if v.audit != nil {
		entry := activity.Entry{
			Action: activity.ActionVerify,
			Source: "verify",
			ISBN:   isbn,
			Details: map[string]any{
				"fields_updated": fieldDisplayNames(updated),
				"fields_skipped": fieldDisplayNames(skipped),
			},
		}
		if book != nil {
			entry.Title = book.Title
		}
		if err := v.audit.Append(entry); err != nil {
			v.logger.Warn("audit append failed", "isbn", isbn, "error", err)
			outcome.AuditErr = err
		}
	}
	return outcome, nil
}

// fieldDisplayNames renders the audit detail lists with the same
// title-cased names the resolution prompts show.
func fieldDisplayNames(fields []FieldID) []string {
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = displayName(field)
	}
	return names
}
