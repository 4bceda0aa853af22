package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/community-reservations/internal/model"
	"github.com/iliyamo/community-reservations/internal/utils"
)

// OfflineGateway issues references for deposits settled by hand: the
// resident pays by card at the office or by bank transfer quoting the
// reference, and an admin settles the booking afterwards.
type OfflineGateway struct{}

// RequestDeposit returns CARD-xxxxxxxxxxxx or TRF-xxxxxxxxxxxx.
func (OfflineGateway) RequestDeposit(_ context.Context, b model.Booking) (string, error) {
	prefix := "CARD"
	if b.PaymentMethod == model.PaymentTransfer {
		prefix = "TRF"
	}
	suffix, err := utils.RandomHex(6)
	if err != nil {
		return "", fmt.Errorf("payment reference: %w", err)
	}
	return prefix + "-" + strings.ToUpper(suffix), nil
}
