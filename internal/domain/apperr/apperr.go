// Package apperr は業務エラーの分類を定義する。
// どのHTTPステータスに写すかはhandler層が決める。
package apperr

import (
	"errors"
	"fmt"

	"shop/internal/domain/model"
)

type Kind string

const (
	//参照した対象が存在しない
	KindNotFound Kind = "NOT_FOUND"
	//現在のステータスでは許可されない操作
	KindInvalidState Kind = "INVALID_STATE"
	//在庫不足
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	//管理者権限がない
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	//決済ゲートウェイが拒否・失敗した
	KindGatewayFailure Kind = "GATEWAY_FAILURE"
	//入力が不正
	KindInvalidInput Kind = "INVALID_INPUT"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what string) error {
	return New(KindNotFound, "%s not found", what)
}

func InvalidState(format string, args ...any) error {
	return New(KindInvalidState, format, args...)
}

// InvalidTransition は許可されない遷移。注文は変更されないまま返す。
func InvalidTransition(from, to model.OrderStatus) error {
	return New(KindInvalidState, "cannot transition order from %s to %s", from, to)
}

// InsufficientStock はどの商品が足りないかを名前で示す。
func InsufficientStock(productName string) error {
	return New(KindInsufficientStock, "insufficient stock for %s", productName)
}

func PermissionDenied(msg string) error {
	return New(KindPermissionDenied, "%s", msg)
}

func GatewayFailure(reason string) error {
	return New(KindGatewayFailure, "payment declined: %s", reason)
}

func InvalidInput(msg string) error {
	return New(KindInvalidInput, "%s", msg)
}

// As は業務エラーならKind付きで取り出す。
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// KindOf は未分類エラーに空Kindを返す。
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}
