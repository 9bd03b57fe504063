package vault

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/prodpilot/prodpilot/internal/domain"
)

// Cookies live for a year; the disabled flag uses the same horizon.
const cookieMaxAge = 60 * 60 * 24 * 365

// Store persists one encrypted token record per provider plus a per-provider
// disabled flag. It holds no state beyond the cipher; every call operates on
// the jar of a single request/response pair.
type Store struct {
	cipher *Cipher
}

func NewStore(cipher *Cipher) *Store {
	return &Store{cipher: cipher}
}

// GetRecord reads and decrypts the provider's stored record. An absent,
// corrupt, or undecryptable blob means "not connected", never a hard error.
func GetRecord[T any](s *Store, jar CookieJar, p domain.Provider) (*T, bool) {
	blob, ok := jar.Get(p.TokenCookie())
	if !ok || blob == "" {
		return nil, false
	}

	plaintext, err := s.cipher.Decrypt(blob)
	if err != nil {
		log.Warn().Err(err).Str("provider", string(p)).Msg("Stored credential blob is unreadable, treating as not connected")
		return nil, false
	}

	var record T
	if err := json.Unmarshal(plaintext, &record); err != nil {
		log.Warn().Err(err).Str("provider", string(p)).Msg("Stored credential record is malformed, treating as not connected")
		return nil, false
	}

	return &record, true
}

// Put encrypts the record into the provider's token cookie and clears the
// disabled flag in the same response.
func (s *Store) Put(jar CookieJar, p domain.Provider, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	blob, err := s.cipher.Encrypt(payload)
	if err != nil {
		return err
	}

	jar.Set(Cookie{Name: p.TokenCookie(), Value: blob, MaxAge: cookieMaxAge})
	jar.Set(Cookie{Name: p.DisabledCookie(), Value: "", MaxAge: 0})
	return nil
}

// PutEncrypted stores a blob that was already encrypted by this vault's
// cipher (the save-token flow hands blobs back through the browser). The
// blob must decrypt, so a caller cannot plant arbitrary cookie content.
func (s *Store) PutEncrypted(jar CookieJar, p domain.Provider, blob string) error {
	if _, err := s.cipher.Decrypt(blob); err != nil {
		return err
	}

	jar.Set(Cookie{Name: p.TokenCookie(), Value: blob, MaxAge: cookieMaxAge})
	jar.Set(Cookie{Name: p.DisabledCookie(), Value: "", MaxAge: 0})
	return nil
}

// Clear deletes the provider's stored record.
func (s *Store) Clear(jar CookieJar, p domain.Provider) {
	jar.Set(Cookie{Name: p.TokenCookie(), Value: "", MaxAge: 0})
}

// IsDisabled reports whether the user explicitly disconnected the provider.
func (s *Store) IsDisabled(jar CookieJar, p domain.Provider) bool {
	v, ok := jar.Get(p.DisabledCookie())
	return ok && v != ""
}

// SetDisabled marks the provider as explicitly disconnected, independent of
// whether its record is cleared in the same response.
func (s *Store) SetDisabled(jar CookieJar, p domain.Provider) {
	jar.Set(Cookie{Name: p.DisabledCookie(), Value: "1", MaxAge: cookieMaxAge})
}
