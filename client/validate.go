package client

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/adamwoolhether/capture/client/signer"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("client: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// Credentials authenticate calls either with an OAuth access token or with a
// client id and secret pair used for HMAC signatures. When an access token is
// set it wins and any id or secret, complete or not, is ignored.
type Credentials struct {
	ClientID     string `json:"client_id" mapstructure:"client_id" validate:"required_without=AccessToken"`
	ClientSecret string `json:"client_secret" mapstructure:"client_secret" validate:"required_without=AccessToken"`
	AccessToken  string `json:"access_token" mapstructure:"access_token"`
}

// Validate reports a [FieldErrors] when c does not describe a
// usable signing mode.
func (c Credentials) Validate() error {
	return Validate(c)
}

// params returns the reserved parameters the signer consumes.
func (c Credentials) params() map[string]string {
	if c.AccessToken != "" {
		return map[string]string{signer.ParamAccessToken: c.AccessToken}
	}

	return map[string]string{
		signer.ParamClientID:     c.ClientID,
		signer.ParamClientSecret: c.ClientSecret,
	}
}

// Validate checks val against its declared validate tags.
func Validate(val any) error {
	if err := validate.Struct(val); err != nil {
		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		var fields FieldErrors
		for _, verror := range verrors {
			field := FieldError{
				Field: verror.Field(),
				Err:   customErrForTag(verror.Tag(), verror),
			}
			fields = append(fields, field)
		}
		return fields
	}

	return nil
}

// FieldError represents a single validation error for a specific field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors represents a collection of field errors.
type FieldErrors []FieldError

// Error implements the error interface, returning a human-readable
// summary of all field errors.
func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return strings.Join(parts, "; ")
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required_without":
		return "required unless access_token is set"
	default:
		return verror.Translate(translator)
	}
}
