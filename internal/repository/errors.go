package repository

import "errors"

var (
	ErrNotFound  = errors.New("запись не найдена")
	ErrDuplicate = errors.New("задача с таким названием уже существует")
)
