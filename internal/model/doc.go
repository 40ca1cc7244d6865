package model

// Package model defines domain data structures used across the app: tool
// specifications, the download task published to observers, status enums and
// the discriminated result of a download operation.
