package vault

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pquerna/otp"
)

// Credential is a single stored login. Service is the unique lookup key
// and is matched exactly and case-sensitively.
type Credential struct {
	ID        string    `json:"id"`
	Service   string    `json:"service"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	TOTP      string    `json:"totp,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Table is the decrypted credential set. It keeps insertion order so
// listings stay stable across unlock/save cycles. The table itself never
// touches disk; mutations only reach the file when the caller saves the
// vault handle.
type Table struct {
	order   []string
	entries map[string]Credential
}

// NewTable returns an empty credential table.
func NewTable() *Table {
	return &Table{entries: make(map[string]Credential)}
}

// Set inserts or overwrites the record for service and reports whether a
// previous record was replaced. Overwriting keeps the original ID and
// creation time.
func (t *Table) Set(service, username, password string) (replaced bool, err error) {
	if len(service) == 0 {
		return false, ErrEmptyService
	}

	now := time.Now().UTC()
	if old, ok := t.entries[service]; ok {
		old.Username = username
		old.Password = password
		old.UpdatedAt = now
		t.entries[service] = old
		return true, nil
	}

	id, err := uuid.NewV4()
	if err != nil {
		return false, err
	}

	t.entries[service] = Credential{
		ID:        id.String(),
		Service:   service,
		Username:  username,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.order = append(t.order, service)

	return false, nil
}

// SetTOTP attaches a TOTP secret to an existing record. It accepts either
// a raw base32 secret or a full otpauth:// url.
func (t *Table) SetTOTP(service, secret string) error {
	cred, ok := t.entries[service]
	if !ok {
		return ErrServiceNotFound
	}

	if strings.HasPrefix(secret, "otpauth://") {
		if _, err := otp.NewKeyFromURL(secret); err != nil {
			return fmt.Errorf("invalid otpauth url: %w", err)
		}
	}

	cred.TOTP = secret
	cred.UpdatedAt = time.Now().UTC()
	t.entries[service] = cred

	return nil
}

// Get looks up a record by exact service name.
func (t *Table) Get(service string) (Credential, bool) {
	cred, ok := t.entries[service]
	return cred, ok
}

// Delete removes the record for service and reports whether one existed.
func (t *Table) Delete(service string) bool {
	if _, ok := t.entries[service]; !ok {
		return false
	}

	delete(t.entries, service)
	for i, s := range t.order {
		if s == service {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}

	return true
}

// Services returns the service names in insertion order. It never exposes
// secret material.
func (t *Table) Services() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of stored records.
func (t *Table) Len() int {
	return len(t.entries)
}

// Search returns the services whose names fuzzily match query, best
// matches first.
func (t *Table) Search(query string) []string {
	ranks := fuzzy.RankFindNormalizedFold(query, t.order)
	sort.Sort(ranks)

	found := make([]string, len(ranks))
	for i, r := range ranks {
		found[i] = r.Target
	}

	return found
}

type tableJSON struct {
	Entries []Credential `json:"entries"`
}

// MarshalJSON serializes the table as an array of records. An array is
// used instead of an object because it round-trips insertion order.
func (t *Table) MarshalJSON() ([]byte, error) {
	entries := make([]Credential, 0, len(t.order))
	for _, service := range t.order {
		entries = append(entries, t.entries[service])
	}

	return json.Marshal(tableJSON{Entries: entries})
}

// UnmarshalJSON materializes a table from decrypted payload bytes.
// Malformed records are rejected here rather than trusted downstream.
func (t *Table) UnmarshalJSON(data []byte) error {
	var raw tableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.order = nil
	t.entries = make(map[string]Credential, len(raw.Entries))

	for _, cred := range raw.Entries {
		if len(cred.Service) == 0 {
			return fmt.Errorf("%w: record with empty service name", ErrCorrupt)
		}
		if _, ok := t.entries[cred.Service]; ok {
			return fmt.Errorf("%w: duplicate service %q", ErrCorrupt, cred.Service)
		}

		t.entries[cred.Service] = cred
		t.order = append(t.order, cred.Service)
	}

	return nil
}
