// File: internal/application/bot_facade.go
package application

import (
	"telegram-shop-bot/internal/usecase"
)

// BotFacade bundles the usecases the Telegram adapter routes into. Keeping a
// single seam here means the adapter never reaches past the usecase layer.
type BotFacade struct {
	UserUC usecase.UserUseCase
	ShopUC usecase.ShopUseCase
	PayUC  usecase.PaymentUseCase
}

func NewBotFacade(userUC usecase.UserUseCase, shopUC usecase.ShopUseCase, payUC usecase.PaymentUseCase) *BotFacade {
	return &BotFacade{UserUC: userUC, ShopUC: shopUC, PayUC: payUC}
}
