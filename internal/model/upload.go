package model

import "time"

// Upload is one parsed spreadsheet bound to the user who uploaded it
// (`uploads` table).  Data is stored as a single JSON document column
// and holds the rows in sheet order.
type Upload struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user"`
	Filename   string    `json:"filename"`
	Data       []Row     `json:"data"`
	UploadedAt time.Time `json:"uploadedAt"`
}
