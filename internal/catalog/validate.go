package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/lehigh-university-libraries/museetour/internal/models"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var (
	vOnce sync.Once
	v     *validator.Validate
)

func validate() *validator.Validate {
	vOnce.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())

		// report yaml/json field names rather than Go names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		mustRegister(v, "slug", func(fl validator.FieldLevel) bool {
			return IsSlug(fl.Field().String())
		})
		mustRegister(v, "media_url", func(fl validator.FieldLevel) bool {
			return isMediaURL(fl.Field().String())
		})
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("catalog: register %s validation: %v", tag, err))
	}
}

// IsSlug reports whether s is a lowercase kebab-case identifier
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// isMediaURL accepts site-relative paths and absolute http(s) URLs
func isMediaURL(s string) bool {
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return !strings.Contains(s, "..")
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidationError collects every problem found in a set of artworks
type ValidationError struct {
	Problems []string
	causes   []error
}

// Unwrap exposes sentinel causes such as ErrDuplicateID to errors.Is
func (e *ValidationError) Unwrap() []error {
	return e.causes
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid catalog: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid catalog: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Validate checks each artwork's fields and the uniqueness of IDs and QR references
func Validate(artworks []models.Artwork) error {
	var problems []string
	var causes []error
	seenIDs := make(map[string]int, len(artworks))
	seenRefs := make(map[string]string, len(artworks))
	ids := make(map[string]bool, len(artworks))
	for i := range artworks {
		ids[artworks[i].ID] = true
	}
	addCause := func(err error) {
		for _, c := range causes {
			if c == err {
				return
			}
		}
		causes = append(causes, err)
	}

	for i := range artworks {
		a := &artworks[i]
		if err := validate().Struct(a); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					problems = append(problems, fmt.Sprintf("artwork %d (%s): field %s failed %s", i, a.ID, fe.Namespace(), fe.Tag()))
				}
			} else {
				problems = append(problems, fmt.Sprintf("artwork %d (%s): %v", i, a.ID, err))
			}
		}

		if prev, ok := seenIDs[a.ID]; ok && a.ID != "" {
			problems = append(problems, fmt.Sprintf("artwork %d: %v %q (first at %d)", i, ErrDuplicateID, a.ID, prev))
			addCause(ErrDuplicateID)
		} else {
			seenIDs[a.ID] = i
		}

		// labels resolve by ref first and artwork ID second, so a ref must
		// not name another artwork either way
		ref := a.QRRef()
		if owner, ok := seenRefs[ref]; ok && ref != "" && owner != a.ID {
			problems = append(problems, fmt.Sprintf("artwork %d (%s): qr_code_ref %q already used by %s", i, a.ID, ref, owner))
			addCause(ErrQRRefConflict)
		} else {
			if ref != a.ID && ids[ref] {
				problems = append(problems, fmt.Sprintf("artwork %d (%s): qr_code_ref %q is the id of another artwork", i, a.ID, ref))
				addCause(ErrQRRefConflict)
			}
			seenRefs[ref] = a.ID
		}

		langs := make(map[string]bool, len(a.Descriptions))
		for _, d := range a.Descriptions {
			if langs[d.Lang] {
				problems = append(problems, fmt.Sprintf("artwork %d (%s): duplicate description language %s", i, a.ID, d.Lang))
			}
			langs[d.Lang] = true
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems, causes: causes}
	}
	return nil
}
