package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

// envelope is the common shape of every ajax response. On error the upstream sends "body": [].
type envelope struct {
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

// SeriesNovel is one listing entry
type SeriesNovel struct {
	ID    FlexibleID `json:"id"`
	Title string     `json:"title"`
}

type seriesContentBody struct {
	Thumbnails struct {
		Novel []SeriesNovel `json:"novel"`
	} `json:"thumbnails"`
}

// NovelBody is the content of one chapter
type NovelBody struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FlexibleID accepts both "123" and 123
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}

// DecodeSeriesContent decodes one listing page into its entries.
func DecodeSeriesContent(data []byte) ([]SeriesNovel, error) {
	raw, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var body seriesContentBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: series content JSON body: %w", utils.ErrParsing, err)
	}
	return body.Thumbnails.Novel, nil
}

// DecodeNovel decodes a chapter content response. A missing body yields a zero NovelBody.
func DecodeNovel(data []byte) (NovelBody, error) {
	raw, err := decodeEnvelope(data)
	if err != nil {
		return NovelBody{}, err
	}
	var body NovelBody
	if raw == nil {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return NovelBody{}, fmt.Errorf("%w: novel JSON body: %w", utils.ErrParsing, err)
	}
	return body, nil
}

// decodeEnvelope returns the raw body object, nil when absent or not an object.
func decodeEnvelope(data []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: JSON response: %w", utils.ErrParsing, err)
	}
	if env.Error {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = "no message"
		}
		return nil, fmt.Errorf("%w: %s", utils.ErrUpstream, msg)
	}
	body := bytes.TrimSpace(env.Body)
	if len(body) == 0 || body[0] != '{' {
		return nil, nil
	}
	return body, nil
}
