package appeals

import "time"

// Status is the normalised appeal status.
type Status string

const (
	StatusUnderReview Status = "under_review"
	StatusRejected    Status = "rejected"
	StatusCompleted   Status = "completed"
)

// File is an attachment of an appeal or of its response.
type File struct {
	ID   int
	File string
}

type Answerer struct {
	FullName string
	Phone    string
}

// Response is the official answer to an appeal. Its ID is the id ratings are submitted against.
type Response struct {
	ID              int
	Text            string
	ReferenceNumber string
	Files           []File
	Answerer        *Answerer
	CreatedAt       string
}

type Sender struct {
	FullName string
	Email    string
	Phone    string
	Address  string
	Region   string
}

// Appeal is the strictly typed view of a WireAppeal. Every field has a defined value even
// when the server omitted it.
type Appeal struct {
	ID         string
	Number     string
	Category   string
	Text       string
	RegionCode string
	Region     string

	// Date is the display date (dd/mm/yyyy); CreatedAt is zero when the timestamp could not be parsed
	Date      string
	CreatedAt time.Time

	Status         Status
	RawStatus      string
	Files          []File
	Response       *Response
	Sender         *Sender
	SenderQuantity int
}
