package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ProjectDocument is a note, brief or file attached to a mission or a client.
// Uploaded files live in object storage under FileKey.
type ProjectDocument struct {
	Base        `bson:",inline"`
	Title       string `bson:"title" json:"title"`
	Type        string `bson:"type" json:"type"`
	MissionID   string `bson:"missionId,omitempty" json:"missionId,omitempty"`
	ClientID    string `bson:"clientId,omitempty" json:"clientId,omitempty"`
	Content     string `bson:"content,omitempty" json:"content,omitempty"`
	FileKey     string `bson:"fileKey,omitempty" json:"fileKey,omitempty"`
	FileName    string `bson:"fileName,omitempty" json:"fileName,omitempty"`
	ContentType string `bson:"contentType,omitempty" json:"contentType,omitempty"`
	Size        int64  `bson:"size,omitempty" json:"size,omitempty"`
}

func (d *ProjectDocument) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&d.Type, validation.Required),
	)
}

func (d *ProjectDocument) Defaults() {
	if d.Type == "" {
		d.Type = "note"
	}
}

func (d *ProjectDocument) GetStatus() string  { return d.Type }
func (d *ProjectDocument) SearchText() string { return joinSearch(d.Title, d.FileName) }
