package core

import "errors"

var (
	ErrUnauthenticated         = errors.New("sign in required")
	ErrForbidden               = errors.New("not allowed")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrInvalidOrder            = errors.New("invalid order")
	ErrPaymentNotConfirmed     = errors.New("payment not confirmed")
	ErrPaymentAlreadyUsed      = errors.New("payment already used for another order")
	ErrInvalidPaymentMethod    = errors.New("unsupported payment method")
	ErrOrderCreationFailed     = errors.New("order creation failed")
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatus           = errors.New("unknown order status")
	ErrInvalidStatusTransition = errors.New("order status cannot change that way")
	ErrUserNotFound            = errors.New("user not found")
	ErrOutOfStock              = errors.New("product is out of stock")
	ErrSellerProfileRequired   = errors.New("a seller profile (store name) is required")
)
