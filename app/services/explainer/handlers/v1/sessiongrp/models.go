package sessiongrp

import (
	"github.com/ardanlabs/chainlab/business/core/session"
	"github.com/ardanlabs/chainlab/foundation/explainer/chain"
)

type digestRequest struct {
	Input string `json:"input" validate:"required"`
}

type digestResponse struct {
	Algorithm string `json:"algorithm"`
	Input     string `json:"input"`
	Digest    string `json:"digest"`
}

type mineRequest struct {
	Payload    string `json:"payload" validate:"required"`
	Difficulty int    `json:"difficulty" validate:"gte=0"`
}

type blockRequest struct {
	Payload string `json:"payload"`
}

type tamperRequest struct {
	Payload string `json:"payload" validate:"required"`
}

type messageRequest struct {
	Message string `json:"message" validate:"required"`
}

type chainResponse struct {
	Blocks []chain.Block  `json:"blocks"`
	Issues []chain.Issue  `json:"issues"`
	Intact bool           `json:"intact"`
	Mining session.Status `json:"mining_status"`
}
