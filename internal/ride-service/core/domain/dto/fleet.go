package dto

type CarRequestDto struct {
	Type        string `json:"type"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Seats       int    `json:"seats"`
	Number      string `json:"number"`
	Description string `json:"desc"`
	Year        string `json:"year"`
}

type AssignCarRequestDto struct {
	CarId string `json:"car_id"`
}

type BlockDriverRequestDto struct {
	Blocked *bool `json:"blocked"`
}
