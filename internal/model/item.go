// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validation errors for Item.
var (
	ErrValidation       = errors.New("validation failed")
	ErrMissingFields    = fmt.Errorf("%w: name, category and price are required", ErrValidation)
	ErrInvalidPrice     = fmt.Errorf("%w: price must be a finite number", ErrValidation)
	ErrEmptyName        = fmt.Errorf("%w: name cannot be empty", ErrValidation)
	ErrEmptyCategory    = fmt.Errorf("%w: category cannot be empty", ErrValidation)
	ErrInvalidFieldType = fmt.Errorf("%w: name and category must be text", ErrValidation)
	ErrMalformedBody    = errors.New("malformed request body")
)

// Item represents an articulo stored in the collection.
type Item struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

// ItemInput carries the write-side fields of a request. A nil field was not
// present in the request body. PriceIsNumber is set when the price arrived
// as a JSON number rather than as text.
type ItemInput struct {
	Name          *string
	Category      *string
	Price         *string
	PriceIsNumber bool
}

// newItem is the validated shape of a create request. The required tags
// reject zero values, so an empty name counts as missing. A zero price
// counts as missing only when it was sent as a number.
type newItem struct {
	Name          string  `validate:"required"`
	Category      string  `validate:"required"`
	Price         float64 `validate:"required_if=PriceIsNumber true"`
	PriceIsNumber bool
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func itemValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ParsePrice converts the textual price of a request into a float64.
// Surrounding whitespace is ignored. NaN and infinities are rejected.
func ParsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, ErrInvalidPrice
	}
	return price, nil
}

// NewItem validates a create request and returns the item it describes,
// without an ID.
func (in ItemInput) NewItem() (Item, error) {
	if in.Name == nil || in.Category == nil || in.Price == nil || strings.TrimSpace(*in.Price) == "" {
		return Item{}, ErrMissingFields
	}

	price, err := ParsePrice(*in.Price)
	if err != nil {
		return Item{}, err
	}

	candidate := newItem{
		Name:          *in.Name,
		Category:      *in.Category,
		Price:         price,
		PriceIsNumber: in.PriceIsNumber,
	}
	if err := itemValidator().Struct(candidate); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return Item{}, ErrMissingFields
		}
		return Item{}, fmt.Errorf("validate item: %w", err)
	}

	return Item{
		Name:     candidate.Name,
		Category: candidate.Category,
		Price:    candidate.Price,
	}, nil
}

// Apply returns a copy of item with every present field of the input
// replacing the stored value. The ID is never changed.
func (in ItemInput) Apply(item Item) (Item, error) {
	updated := item

	if in.Name != nil {
		if *in.Name == "" {
			return Item{}, ErrEmptyName
		}
		updated.Name = *in.Name
	}

	if in.Category != nil {
		if *in.Category == "" {
			return Item{}, ErrEmptyCategory
		}
		updated.Category = *in.Category
	}

	if in.Price != nil {
		price, err := ParsePrice(*in.Price)
		if err != nil {
			return Item{}, err
		}
		updated.Price = price
	}

	return updated, nil
}

// Envelope is the JSON body of every successful API response.
type Envelope[T any] struct {
	Error   bool   `json:"error"`
	Codigo  int    `json:"codigo"`
	Mensaje string `json:"mensaje"`
	Data    T      `json:"data"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](status int, message string, data T) Envelope[T] {
	return Envelope[T]{
		Error:   false,
		Codigo:  status,
		Mensaje: message,
		Data:    data,
	}
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Codigo  int    `json:"codigo"`
	Mensaje string `json:"mensaje"`
}

// NewErrorResponse creates an error API response.
func NewErrorResponse(status int, message string) ErrorResponse {
	return ErrorResponse{
		Error:   true,
		Codigo:  status,
		Mensaje: message,
	}
}

// Response messages.
const (
	MsgCreated        = "Artículo creado con éxito"
	MsgListed         = "Lista de artículos"
	MsgFound          = "Artículo encontrado"
	MsgUpdated        = "Artículo actualizado con éxito"
	MsgDeleted        = "Artículo eliminado con éxito"
	MsgMissingFields  = "Faltan datos en la solicitud"
	MsgInvalidData    = "Datos inválidos en la solicitud"
	MsgMalformedBody  = "Cuerpo de la solicitud inválido"
	MsgNotFound       = "Artículo no encontrado"
	MsgStorageFailure = "Error al guardar los datos"
	MsgInternalError  = "Error interno del servidor"
	MsgHealthy        = "Servicio disponible"
	MsgNotReady       = "Servicio no disponible"
)

// EventType names a change made to the collection.
type EventType string

// Item event types.
const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// ItemEvent is broadcast to feed subscribers after a successful mutation.
type ItemEvent struct {
	Type      EventType `json:"type"`
	Data      Item      `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// NewItemEvent creates an event stamped with the current UTC time.
func NewItemEvent(eventType EventType, item Item) ItemEvent {
	return ItemEvent{
		Type:      eventType,
		Data:      item,
		Timestamp: time.Now().UTC(),
	}
}
