package entity

import "time"

// Message es un mensaje del panel de colaboración de una empresa.
type Message struct {
	ID        int64
	CompanyID int64
	Author    string
	Content   string
	CreatedAt time.Time
}

func (m Message) RecordID() int64       { return m.ID }
func (m Message) OccurredAt() time.Time { return m.CreatedAt }
