package appeals

import (
	"encoding/json"

	"github.com/jrsteele09/go-appeals-client/apimodel"
)

// Category is an appeal category from /appeals/category/list.
type Category struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// The wire types mirror the server's JSON loosely; Map turns them into Appeal.

type wireFile struct {
	ID   json.RawMessage `json:"id"`
	File string          `json:"file"`
	Name string          `json:"name,omitempty"`
}

type wireAnswerer struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type wireResponse struct {
	ID              json.RawMessage `json:"id"`
	Text            json.RawMessage `json:"text"`
	ReferenceNumber string          `json:"reference_number"`
	ResponseFiles   []wireFile      `json:"response_files"`
	Answerer        *wireAnswerer   `json:"answerer"`
	CreatedAt       string          `json:"created_at"`
}

type wireSender struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Region   string `json:"region"`
}

// WireAppeal is an appeal as returned by /appeals/me, /appeals/{id} and /appeals/create/.
type WireAppeal struct {
	ID              apimodel.FlexID `json:"id"`
	ReferenceNumber json.RawMessage `json:"reference_number"`
	AppealNumber    json.RawMessage `json:"appeal_number"`
	Region          string          `json:"region"`
	Status          json.RawMessage `json:"status"`
	Category        json.RawMessage `json:"category"`
	CreatedAt       string          `json:"created_at"`
	Text            json.RawMessage `json:"text"`
	Files           []wireFile      `json:"files"`
	AppealFiles     []wireFile      `json:"appeal_files"`
	AppealResponse  json.RawMessage `json:"appeal_response"`
	Sender          *wireSender     `json:"sender"`
	SenderQuantity  int             `json:"sender_quantity"`
}
