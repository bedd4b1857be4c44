package domain

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInsufficientAsset  = errors.New("insufficient asset")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrLengthMismatch     = errors.New("length mismatch")
	ErrSelfTrade          = errors.New("seller cannot buy own listing")
	ErrSelfBid            = errors.New("seller cannot bid on own auction")
	ErrBidTooLow          = errors.New("bid too low")
	ErrAuctionExpired     = errors.New("auction expired")
	ErrAuctionLive        = errors.New("auction still live")
	ErrBidderExists       = errors.New("auction has a standing bid")
	ErrFeeRateTooHigh     = errors.New("fee rate exceeds denominator")
	ErrSplitExceedsAmount = errors.New("fee and royalty exceed amount")
	ErrRateLimited        = errors.New("rate limited")
)
