// Package validate holds the client-side input rules applied before any
// contract write.
package validate

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/Mohsinsiddi/w3giveaway/internal/config"
)

// ErrValidation wraps every rule failure.
var ErrValidation = errors.New("invalid input")

var (
	addressRe      = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	emailRe        = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	giveawayNameRe = regexp.MustCompile(`^[A-Za-z ]+$`)
	keyHashRe      = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("admin_addr", func(fl validator.FieldLevel) bool {
		return IsValidAdminAddress(fl.Field().String())
	})
	must("giveaway_name", func(fl validator.FieldLevel) bool {
		return GiveawayName(fl.Field().String()) == nil
	})
	must("participant_email", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	return v
}

// CreateGiveawayInput is the create form.
type CreateGiveawayInput struct {
	Name string `validate:"required,giveaway_name"`
}

// BatchInput is the add-participants form.
type BatchInput struct {
	GiveawayID uint64
	Emails     []string `validate:"min=1,max=10,dive,participant_email"`
}

// AdminInput is the admin add/remove form.
type AdminInput struct {
	Address string `validate:"required,admin_addr"`
}

// Struct runs the tag rules on v.
func Struct(v interface{}) error {
	err := structValidator.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// IsValidAdminAddress reports whether a is a 0x-prefixed 20-byte hex address.
func IsValidAdminAddress(a string) bool {
	return addressRe.MatchString(a)
}

// ParseAddress validates and converts an admin address.
func ParseAddress(a string) (common.Address, error) {
	a = strings.TrimSpace(a)
	if !IsValidAdminAddress(a) {
		return common.Address{}, fmt.Errorf("%w: %q is not a valid address", ErrValidation, a)
	}
	return common.HexToAddress(a), nil
}

// IsValidEmail applies the participant email rule.
func IsValidEmail(e string) bool {
	return emailRe.MatchString(e)
}

// EmailEntry is one parsed entry of a batch.
type EmailEntry struct {
	Email string
	Valid bool
}

// EmailBatch is the result of ParseEmails.
type EmailBatch struct {
	Entries []EmailEntry
	TooMany bool
	Valid   bool
}

// Emails returns the entries' addresses.
func (b EmailBatch) Emails() []string {
	out := make([]string, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = e.Email
	}
	return out
}

// Invalid returns the entries that fail the email rule.
func (b EmailBatch) Invalid() []string {
	var out []string
	for _, e := range b.Entries {
		if !e.Valid {
			out = append(out, e.Email)
		}
	}
	return out
}

// Err explains why the batch is not valid, or returns nil.
func (b EmailBatch) Err() error {
	switch {
	case b.Valid:
		return nil
	case len(b.Entries) == 0:
		return fmt.Errorf("%w: no email addresses given", ErrValidation)
	case b.TooMany:
		return fmt.Errorf("%w: at most %d emails per batch, got %d", ErrValidation, config.MaxEmails, len(b.Entries))
	default:
		return fmt.Errorf("%w: invalid emails: %s", ErrValidation, strings.Join(b.Invalid(), ", "))
	}
}

// ParseEmails splits a list separated by commas or whitespace and drops
// empty entries. The batch is valid when every entry is valid and there are
// at most MaxEmails of them.
func ParseEmails(input string) EmailBatch {
	var b EmailBatch
	for _, e := range strings.FieldsFunc(input, isEmailSeparator) {
		b.Entries = append(b.Entries, EmailEntry{Email: e, Valid: IsValidEmail(e)})
	}
	b.TooMany = len(b.Entries) > config.MaxEmails
	b.Valid = len(b.Entries) > 0 && !b.TooMany
	for _, e := range b.Entries {
		if !e.Valid {
			b.Valid = false
		}
	}
	return b
}

func isEmailSeparator(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}

// GiveawayName checks a new giveaway's name: letters and spaces, not blank.
func GiveawayName(name string) error {
	n := strings.TrimSpace(name)
	if n == "" {
		return fmt.Errorf("%w: giveaway name is required", ErrValidation)
	}
	if !giveawayNameRe.MatchString(n) {
		return fmt.Errorf("%w: giveaway name may contain only letters and spaces", ErrValidation)
	}
	return nil
}

// KeyHash parses a 32-byte VRF key hash.
func KeyHash(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	if !keyHashRe.MatchString(s) {
		return common.Hash{}, fmt.Errorf("%w: key hash must be 0x followed by 64 hex digits", ErrValidation)
	}
	return common.HexToHash(s), nil
}

// GasLimit parses a positive callback gas limit.
func GasLimit(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: gas limit must be a positive integer", ErrValidation)
	}
	return uint32(v), nil
}

// SubscriptionID parses a positive VRF subscription id of any size.
func SubscriptionID(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || v.Sign() <= 0 {
		return nil, fmt.Errorf("%w: subscription id must be a positive integer", ErrValidation)
	}
	return v, nil
}

// GiveawayID parses a giveaway id argument.
func GiveawayID(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a giveaway id", ErrValidation, s)
	}
	return v, nil
}
