package di

import "errors"

type DB struct {
	DSN string
}

type Logger struct {
	Level string
}

type BasketService struct {
	DB     *DB
	Logger *Logger
}

type UserService struct {
	DB     *DB
	Logger *Logger
	Basket *BasketService
}

func (u *UserService) SetBasket(b *BasketService) { u.Basket = b }

func NewDB() (*DB, error) { return &DB{DSN: "postgres://"}, nil }

func NewLogger() (*Logger, error) { return &Logger{Level: "info"}, nil }

func NewBasketService(db *DB, log *Logger) (*BasketService, error) {
	return &BasketService{DB: db, Logger: log}, nil
}

func NewUserService(db *DB, log *Logger, basket *BasketService) (*UserService, error) {
	return &UserService{DB: db, Logger: log, Basket: basket}, nil
}

var ErrBoom = errors.New("boom")
