package appeals

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-appeals-client/apimodel"
	"github.com/jrsteele09/go-appeals-client/internal/utils"
	"github.com/tidwall/gjson"
)

// Fallback values for fields the server left out.
const (
	DefaultCategoryName = "Категория не указана"
	DefaultAppealText   = "Текст обращения не указан"
	DefaultResponseText = "Ответ не получен"
	DefaultNumber       = "Unknown"

	numberPrefix = "N°"
)

var dateLayouts = []string{
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"02/01/2006",
}

var statusByServerValue = map[string]Status{
	"отправлено":      StatusUnderReview,
	"на рассмотрении": StatusUnderReview,
	"в обработке":     StatusUnderReview,
	"under_review":    StatusUnderReview,

	"отклонено": StatusRejected,
	"отклонён":  StatusRejected,
	"отказано":  StatusRejected,
	"rejected":  StatusRejected,

	"принято":   StatusCompleted,
	"выполнено": StatusCompleted,
	"завершено": StatusCompleted,
	"completed": StatusCompleted,
	"accepted":  StatusCompleted,
}

var regionNames = map[string]string{
	"nukus":           "г. Нукус",
	"karakalpakstan":  "Республика Каракалпакстан",
	"tashkent":        "г. Ташкент",
	"tashkent_region": "Ташкентская область",
	"samarkand":       "Самаркандская область",
	"bukhara":         "Бухарская область",
	"khorezm":         "Хорезмская область",
	"navoi":           "Навоийская область",
	"kashkadarya":     "Кашкадарьинская область",
	"surkhandarya":    "Сурхандарьинская область",
	"syrdarya":        "Сырдарьинская область",
	"jizzakh":         "Джизакская область",
	"fergana":         "Ферганская область",
	"namangan":        "Наманганская область",
	"andijan":         "Андижанская область",
}

// MapStatus normalises a server status. Unknown values are treated as under review.
func MapStatus(raw string) Status {
	if s, ok := statusByServerValue[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusUnderReview
}

// RegionDisplayName returns the display name of a region code, or the code itself.
func RegionDisplayName(code string) string {
	if name, ok := regionNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// Regions returns the known region codes.
func Regions() map[string]string {
	out := make(map[string]string, len(regionNames))
	for k, v := range regionNames {
		out[k] = v
	}
	return out
}

// DisplayDate returns the date part of a "dd/mm/yyyy hh:mm" timestamp.
func DisplayDate(raw string) string {
	date, _, _ := strings.Cut(strings.TrimSpace(raw), " ")
	return date
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Map converts a wire appeal into an Appeal.
func Map(w WireAppeal) Appeal {
	files := w.Files
	if files == nil {
		files = w.AppealFiles
	}

	var senderRegion string
	if w.Sender != nil {
		senderRegion = w.Sender.Region
	}
	regionCode := utils.FirstNonEmpty(w.Region, senderRegion)
	rawStatus := rawString(w.Status, "")

	a := Appeal{
		ID:             utils.FirstNonEmpty(w.ID.String(), "0"),
		Number:         numberPrefix + utils.FirstNonEmpty(rawString(w.ReferenceNumber, ""), rawString(w.AppealNumber, ""), DefaultNumber),
		Category:       categoryName(w.Category),
		Text:           utils.FirstNonEmpty(strings.TrimSpace(rawString(w.Text, "")), DefaultAppealText),
		RegionCode:     regionCode,
		Region:         RegionDisplayName(regionCode),
		Date:           DisplayDate(w.CreatedAt),
		CreatedAt:      parseDate(w.CreatedAt),
		Status:         MapStatus(rawStatus),
		RawStatus:      rawStatus,
		Files:          mapFiles(files),
		Response:       mapResponse(w.AppealResponse),
		SenderQuantity: w.SenderQuantity,
	}
	if w.Sender != nil {
		a.Sender = &Sender{
			FullName: w.Sender.FullName,
			Email:    w.Sender.Email,
			Phone:    w.Sender.Phone,
			Address:  w.Sender.Address,
			Region:   w.Sender.Region,
		}
	}
	return a
}

// MapAll maps a page of wire appeals.
func MapAll(ws []WireAppeal) []Appeal {
	out := make([]Appeal, 0, len(ws))
	for _, w := range ws {
		out = append(out, Map(w))
	}
	return out
}

func mapPage(p *apimodel.Page[WireAppeal]) *apimodel.Page[Appeal] {
	return &apimodel.Page[Appeal]{
		Limit:    p.Limit,
		Offset:   p.Offset,
		Count:    p.Count,
		Next:     p.Next,
		Previous: p.Previous,
		Results:  MapAll(p.Results),
	}
}

func mapFiles(ws []wireFile) []File {
	files := make([]File, 0, len(ws))
	for _, f := range ws {
		files = append(files, File{ID: rawInt(f.ID), File: f.File})
	}
	return files
}

func mapResponse(raw json.RawMessage) *Response {
	if !gjson.ParseBytes(raw).IsObject() {
		return nil
	}
	var w wireResponse
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil
	}

	r := &Response{
		ID:              rawInt(w.ID),
		Text:            utils.FirstNonEmpty(strings.TrimSpace(rawString(w.Text, "")), DefaultResponseText),
		ReferenceNumber: w.ReferenceNumber,
		Files:           mapFiles(w.ResponseFiles),
		CreatedAt:       w.CreatedAt,
	}
	if w.Answerer != nil {
		r.Answerer = &Answerer{FullName: w.Answerer.FullName, Phone: w.Answerer.Phone}
	}
	return r
}

func categoryName(raw json.RawMessage) string {
	v := gjson.ParseBytes(raw)
	switch {
	case v.Type == gjson.String && v.Str != "":
		return v.Str
	case v.IsObject():
		if name := v.Get("name"); name.Type == gjson.String && name.Str != "" {
			return name.Str
		}
	}
	return DefaultCategoryName
}

// rawString renders a loosely typed JSON value as text. Objects and arrays come back as JSON.
func rawString(raw json.RawMessage, def string) string {
	if len(raw) == 0 {
		return def
	}
	v := gjson.ParseBytes(raw)
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return def
	default:
		return v.Raw
	}
}

func rawInt(raw json.RawMessage) int {
	v := gjson.ParseBytes(raw)
	switch v.Type {
	case gjson.Number:
		if float64(int(v.Num)) == v.Num {
			return int(v.Num)
		}
	case gjson.String:
		if n, err := strconv.Atoi(v.Str); err == nil {
			return n
		}
	}
	return 0
}
