package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Custom column serializers for the map/slice shaped fields

type StringSlice []string

// Value implements the driver.Valuer interface.
// This defines how the slice is stored in the database.
// Due to commas being dangerous no element may include a comma
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "", nil
	}

	for _, v := range s {
		if strings.Contains(v, ",") {
			return "", fmt.Errorf("unsafe string, %s", s)
		}
	}

	return strings.Join(s, ","), nil
}

// Scan implements the sql.Scanner interface.
// This defines how the database value is converted back into go.
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = []string{}
		return nil
	}

	str, ok := value.(string)
	if !ok {
		b, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan StringSlice, %v", value)
		}

		str = string(b)
	}

	if str == "" {
		*s = []string{}
	} else {
		*s = strings.Split(str, ",")
	}

	return nil
}

func (s StringSlice) Has(v string) bool {
	return slices.Contains(s, v)
}

// Without returns a copy with every occurrence of v removed
func (s StringSlice) Without(v string) StringSlice {
	out := make(StringSlice, 0, len(s))
	for _, t := range s {
		if t != v {
			out = append(out, t)
		}
	}
	return out
}

// CountMap is a label -> count histogram stored as JSON text
type CountMap map[string]int64

func (m CountMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}

	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to serialize CountMap, %w", err)
	}

	return string(b), nil
}

func (m *CountMap) Scan(value interface{}) error {
	b, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("failed to scan CountMap, %w", err)
	}

	if len(b) == 0 {
		*m = CountMap{}
		return nil
	}

	return json.Unmarshal(b, m)
}

// WeeklyUserMap is the userID -> weekly entry mapping stored as JSON text
type WeeklyUserMap map[string]*WeeklyUserEntry

func (m WeeklyUserMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}

	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to serialize WeeklyUserMap, %w", err)
	}

	return string(b), nil
}

func (m *WeeklyUserMap) Scan(value interface{}) error {
	b, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("failed to scan WeeklyUserMap, %w", err)
	}

	if len(b) == 0 {
		*m = WeeklyUserMap{}
		return nil
	}

	return json.Unmarshal(b, m)
}

func scanBytes(value interface{}) ([]byte, error) {
	if value == nil {
		return nil, nil
	}

	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", value)
	}
}
