package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrOpenDatabase = errors.New("open database failed")
	ErrLoadDataset  = errors.New("load dataset failed")
)
