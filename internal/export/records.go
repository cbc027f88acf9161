package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dormstats/dormstats/pkg/dormstats"
)

// writeRecords serializes one result set as a JSON array of flat mappings,
// one per row in row order, with 4-space indentation and no HTML escaping.
func writeRecords(rs dormstats.ResultSet, path string) error {
	records := rs.Records()
	for _, record := range records {
		for col, value := range record {
			normalized, err := normalizeValue(value)
			if err != nil {
				return fmt.Errorf("column %q: %w", col, err)
			}
			record[col] = normalized
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("%w: %w", dormstats.ErrSerialization, err)
	}
	return nil
}

// normalizeValue maps backend scalar types onto JSON-encodable values.
//
// The backend's arbitrary-precision numeric type has no native JSON encoding
// and is widened to float64 (12.50 becomes 12.5). Everything else passes
// through only if the encoder handles it natively; an unsupported type is an
// explicit serialization error naming the type, never a silent coercion.
func normalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case nil, bool, string,
		int, int16, int32, int64,
		float32, float64,
		time.Time:
		return v, nil
	case pgtype.Numeric:
		return widenNumeric(v)
	case *pgtype.Numeric:
		if v == nil {
			return nil, nil
		}
		return widenNumeric(*v)
	case [16]byte: // uuid
		return fmt.Sprintf("%x-%x-%x-%x-%x", v[0:4], v[4:6], v[6:8], v[8:10], v[10:16]), nil
	case []byte:
		return string(v), nil
	default:
		return nil, fmt.Errorf("value of type %T is not serializable in records format: %w",
			value, dormstats.ErrSerialization)
	}
}

// widenNumeric converts an arbitrary-precision numeric to float64.
func widenNumeric(n pgtype.Numeric) (any, error) {
	if !n.Valid {
		return nil, nil
	}
	if n.NaN {
		return nil, fmt.Errorf("numeric NaN is not serializable in records format: %w",
			dormstats.ErrSerialization)
	}
	f8, err := n.Float64Value()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dormstats.ErrSerialization, err)
	}
	return f8.Float64, nil
}

