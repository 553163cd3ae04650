package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/vyrodovalexey/articulos-api/internal/model"
)

// maxBodyBytes caps the size of a request body.
const maxBodyBytes = 1 << 20 // 1 MB

// Form and JSON keys of the write-side fields.
const (
	fieldName     = "name"
	fieldCategory = "category"
	fieldPrice    = "price"
)

// decodeItemInput reads name, category and price from a JSON or URL-encoded
// form body. Any other body is read and discarded and yields no fields.
func decodeItemInput(w http.ResponseWriter, r *http.Request) (model.ItemInput, error) {
	if r.Body == nil {
		return model.ItemInput{}, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		return decodeJSONInput(r.Body)
	case "application/x-www-form-urlencoded":
		return decodeFormInput(r)
	default:
		if _, err := io.Copy(io.Discard, r.Body); err != nil {
			return model.ItemInput{}, fmt.Errorf("%w: %w", model.ErrMalformedBody, err)
		}
		return model.ItemInput{}, nil
	}
}

func decodeJSONInput(body io.Reader) (model.ItemInput, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return model.ItemInput{}, nil
		}
		return model.ItemInput{}, fmt.Errorf("%w: %w", model.ErrMalformedBody, err)
	}

	var (
		in  model.ItemInput
		err error
	)

	if in.Name, err = jsonText(raw[fieldName]); err != nil {
		return model.ItemInput{}, err
	}
	if in.Category, err = jsonText(raw[fieldCategory]); err != nil {
		return model.ItemInput{}, err
	}
	if in.Price, in.PriceIsNumber, err = jsonPrice(raw[fieldPrice]); err != nil {
		return model.ItemInput{}, err
	}

	return in, nil
}

// jsonText decodes a JSON string. Absent and null values report nil.
func jsonText(raw json.RawMessage) (*string, error) {
	if isJSONNull(raw) {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, model.ErrInvalidFieldType
	}

	return &s, nil
}

// jsonPrice accepts a JSON number or string and returns its text, and
// whether it was a number. Absent and null values report nil.
func jsonPrice(raw json.RawMessage) (*string, bool, error) {
	if isJSONNull(raw) {
		return nil, false, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s, false, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, false, model.ErrInvalidPrice
	}
	s = n.String()

	return &s, true, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func decodeFormInput(r *http.Request) (model.ItemInput, error) {
	if err := r.ParseForm(); err != nil {
		return model.ItemInput{}, fmt.Errorf("%w: %w", model.ErrMalformedBody, err)
	}

	return model.ItemInput{
		Name:     formValue(r, fieldName),
		Category: formValue(r, fieldCategory),
		Price:    formValue(r, fieldPrice),
	}, nil
}

// formValue returns the first body value of key, or nil if the key is absent.
func formValue(r *http.Request, key string) *string {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// itemID parses the leading integer of the id path variable, so "7abc"
// and "7.5" both address item 7. Leading whitespace and a sign are
// accepted, and a "0x" prefix reads the digits as hexadecimal. A value with
// no leading digits matches no item.
func itemID(r *http.Request) (int, bool) {
	return parseLeadingInt(mux.Vars(r)["id"])
}

func parseLeadingInt(raw string) (int, bool) {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}

	base, isDigit := 10, isDecimalDigit
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base, isDigit, s = 16, isHexDigit, s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	id, err := strconv.ParseInt(sign+s[:end], base, strconv.IntSize)
	if err != nil {
		return 0, false
	}
	return int(id), true
}

func isDecimalDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDecimalDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
