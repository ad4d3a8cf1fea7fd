// Package apiresp writes the JSON envelope every /api endpoint answers with:
//
//	{ "success": true,  "data": {...}, "message": "..." }
//	{ "success": false, "message": "..." }
package apiresp

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Envelope is the response body shape.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// Message writes a success envelope with a message and optional data.
func Message(w http.ResponseWriter, status int, msg string, data interface{}) {
	JSON(w, status, Envelope{Success: true, Message: msg, Data: data})
}

// Error writes a failure envelope.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Success: false, Message: msg})
}

// JSON encodes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var errEmptyBody = errors.New("request body is empty")

// maxBody bounds request bodies read by Decode.
const maxBody = 1 << 20

// Decode reads a JSON request body into v. Unknown fields are ignored.
func Decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errEmptyBody
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	return dec.Decode(v)
}
