package model

import "time"

// Review is a single user rating and optional comment tied to one App.
//
// AppID is a non-owning reference — deleting the App leaves its reviews in
// place unless the server runs with cascade deletion enabled. Reviews are
// write-once: no exposed operation updates or deletes an individual review.
type Review struct {
	ID        string    `json:"id"`
	AppID     string    `json:"appId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}
