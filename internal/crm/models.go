package crm

import "time"

type Subscription struct {
	ID           string
	Email        string
	IsActive     bool
	SubscribedAt time.Time
}

type ContactMessage struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Subject   string
	Message   string
	IsRead    bool
	IPAddress string
	CreatedAt time.Time
}
