package export

import (
	"encoding/xml"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dormstats/dormstats/pkg/dormstats"
)

// xmlNamePattern is the accepted subset of XML element names. Column names
// are used verbatim as element names, so a name with spaces, a leading digit
// or other invalid characters fails the export explicitly instead of
// producing a malformed document.
var xmlNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// writeMarkup serializes one result set as an XML document: a single <data>
// root, one <row> element per row, and one child element per column whose
// name is the column name and whose text is the value's string form. NULL
// values produce an empty element. Output is indented with two spaces.
func writeMarkup(rs dormstats.ResultSet, path string) error {
	for _, col := range rs.Columns {
		if !xmlNamePattern.MatchString(col) {
			return fmt.Errorf("column name %q is not a valid markup element name: %w",
				col, dormstats.ErrSerialization)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: "data"}}
	if err := enc.EncodeToken(root); err != nil {
		return fmt.Errorf("%w: %w", dormstats.ErrSerialization, err)
	}

	for _, row := range rs.Rows {
		rowStart := xml.StartElement{Name: xml.Name{Local: "row"}}
		if err := enc.EncodeToken(rowStart); err != nil {
			return fmt.Errorf("%w: %w", dormstats.ErrSerialization, err)
		}

		for i, col := range rs.Columns {
			var value any
			if i < len(row) {
				value = row[i]
			}
			text, err := formatValue(value)
			if err != nil {
				return fmt.Errorf("column %q: %w", col, err)
			}

			colStart := xml.StartElement{Name: xml.Name{Local: col}}
			if err := enc.EncodeToken(colStart); err != nil {
				return fmt.Errorf("%w: %w", dormstats.ErrSerialization, err)
			}
			if text != "" {
				if err := enc.EncodeToken(xml.CharData(text)); err != nil {
					return fmt.Errorf("%w: %w", dormstats.ErrSerialization, err)
				}
			}
			if err := enc.EncodeToken(colStart.End()); err != nil {
				return fmt.Errorf("%w: %w", dormstats.ErrSerialization, err)
			}
		}

		if err := enc.EncodeToken(rowStart.End()); err != nil {
			return fmt.Errorf("%w: %w", dormstats.ErrSerialization, err)
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return fmt.Errorf("%w: %w", dormstats.ErrSerialization, err)
	}
	return enc.Close()
}

// formatValue renders a backend scalar as element text. NULL renders as the
// empty string, which writeMarkup turns into an empty element.
func formatValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case time.Time:
		return v.Format("2006-01-02 15:04:05"), nil
	case pgtype.Numeric:
		widened, err := widenNumeric(v)
		if err != nil {
			return "", err
		}
		if widened == nil {
			return "", nil
		}
		return strconv.FormatFloat(widened.(float64), 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("value of type %T is not serializable in markup format: %w",
			value, dormstats.ErrSerialization)
	}
}
