package records

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"
)

const (
	ExcludeActorUser  = "user"
	ExcludeActorScore = "score"
)

// Excluded is the on-disk list of records that must never be recommended again.
type Excluded struct {
	Items []*ExcludedRecord
}

type ExcludedRecord struct {
	ID         string
	Label      string
	Actor      string `json:",omitempty"`
	Reason     string `json:",omitempty"`
	ExcludedAt time.Time
}

// ToExcluded converts records into exclude file entries.
func (r *Records) ToExcluded(actor, reason string) *Excluded {
	excluded := &Excluded{}
	for _, record := range r.Items {
		excluded.Items = append(excluded.Items, &ExcludedRecord{
			ID:         record.ID(),
			Label:      record.Label(),
			Actor:      actor,
			Reason:     reason,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// GetExcludedFromFile reads an exclude file. A missing or empty file is an empty list.
func GetExcludedFromFile(path string) (*Excluded, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Excluded{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Excluded{}, nil
	}

	var excluded Excluded
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *Excluded) Append(s *Excluded) {
	e.Items = append(e.Items, s.Items...)
}

func (e *Excluded) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, record := range e.Items {
		if record.ID == "" {
			continue
		}
		ids = append(ids, record.ID)
	}
	return ids
}

func (e *Excluded) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
