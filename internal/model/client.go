package model

import "time"

// Client は作業の発注元を表す。
type Client struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Project はクライアントに属するプロジェクト。
type Project struct {
	ID         string
	ClientID   string
	ClientName string
	Name       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
