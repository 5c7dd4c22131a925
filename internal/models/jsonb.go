package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Composite fields are stored as JSONB in PostgreSQL.

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func jsonScan(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb source %T", src)
	}
}

func (p Permissions) Value() (driver.Value, error) { return jsonValue(p) }
func (p *Permissions) Scan(src interface{}) error  { return jsonScan(src, p) }

func (m TeamMembers) Value() (driver.Value, error) {
	if m == nil {
		m = TeamMembers{}
	}
	return jsonValue([]TeamMember(m))
}
func (m *TeamMembers) Scan(src interface{}) error { return jsonScan(src, (*[]TeamMember)(m)) }

func (p Parts) Value() (driver.Value, error) {
	if p == nil {
		p = Parts{}
	}
	return jsonValue([]Part(p))
}
func (p *Parts) Scan(src interface{}) error { return jsonScan(src, (*[]Part)(p)) }

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		a = Attachments{}
	}
	return jsonValue([]Attachment(a))
}
func (a *Attachments) Scan(src interface{}) error { return jsonScan(src, (*[]Attachment)(a)) }
