package domain

// SourceInput carries fields for creating or updating an IngestionSource.
// Nil pointers mean "not supplied".
type SourceInput struct {
	Name           *string
	ConnectorName  *string
	CollectionName *string

	// Configuration is kept untyped so callers can reject non-object payloads.
	Configuration any
	ScheduleCron  *string
	Status        *string
}

// SourceInputFromMap builds a SourceInput from a decoded JSON object.
// String fields with a non-string value are reported as invalid.
func SourceInputFromMap(data map[string]any) (SourceInput, error) {
	var in SourceInput
	fields := []struct {
		key string
		dst **string
	}{
		{"name", &in.Name},
		{"connector_name", &in.ConnectorName},
		{"collection_name", &in.CollectionName},
		{"schedule_cron", &in.ScheduleCron},
		{"status", &in.Status},
	}
	for _, f := range fields {
		v, ok := data[f.key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return SourceInput{}, &FieldError{Field: f.key, Err: ErrInvalidParameter}
		}
		*f.dst = &s
	}
	if v, ok := data["configuration"]; ok {
		in.Configuration = v
	}
	return in, nil
}

// FieldError names the parameter behind a validation failure.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Err.Error() + ": " + e.Field
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
