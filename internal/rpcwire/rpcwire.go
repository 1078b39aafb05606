// Package rpcwire encodes the RPC messages in protocol buffers wire format.
//
//	message MenuItem          { string id = 1; string article = 2; string name = 3;
//	                            string price = 4; bool is_weighted = 5; string full_path = 6; }
//	message GetMenuRequest    { bool value = 1; }
//	message GetMenuResponse   { bool success = 1; string error_message = 2; repeated MenuItem menu_items = 3; }
//	message OrderItem         { string id = 1; string quantity = 2; }
//	message Order             { string id = 1; repeated OrderItem order_items = 2; }
//	message SendOrderResponse { bool success = 1; string error_message = 2; }
package rpcwire

import (
	"fmt"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/encoding/protowire"

	"restaurant-orders/internal/models"
)

// RPC method names carried in the message type
const (
	MethodGetMenu   = "GetMenu"
	MethodSendOrder = "SendOrder"
)

// MenuResponse is the reply to GetMenu
type MenuResponse struct {
	Success      bool
	ErrorMessage string
	Items        []models.Dish
}

// OrderResponse is the reply to SendOrder
type OrderResponse struct {
	Success      bool
	ErrorMessage string
}

// EncodeMenuRequest returns the GetMenu request body
func EncodeMenuRequest() []byte {
	return appendBool(nil, 1, true)
}

func EncodeMenuResponse(r MenuResponse) []byte {
	var b []byte
	b = appendBool(b, 1, r.Success)
	b = appendString(b, 2, r.ErrorMessage)
	for _, d := range r.Items {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeMenuItem(d))
	}
	return b
}

func DecodeMenuResponse(b []byte) (MenuResponse, error) {
	var r MenuResponse
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Success = protowire.DecodeBool(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			r.ErrorMessage = v
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			d, err := decodeMenuItem(v)
			if err != nil {
				return 0, fmt.Errorf("menu_items[%d]: %w", len(r.Items), err)
			}
			r.Items = append(r.Items, d)
			return n, nil
		}
		return skip(num, typ, b)
	})
	return r, err
}

func encodeMenuItem(d models.Dish) []byte {
	var b []byte
	b = appendString(b, 1, d.ID)
	b = appendString(b, 2, d.Code)
	b = appendString(b, 3, d.Name)
	b = appendString(b, 4, d.Price.String())
	b = appendBool(b, 5, d.IsWeighted)
	b = appendString(b, 6, d.FullPath)
	return b
}

func decodeMenuItem(b []byte) (models.Dish, error) {
	var (
		d     models.Dish
		price string
	)
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ == protowire.BytesType {
			var dst *string
			switch num {
			case 1:
				dst = &d.ID
			case 2:
				dst = &d.Code
			case 3:
				dst = &d.Name
			case 4:
				dst = &price
			case 6:
				dst = &d.FullPath
			}
			if dst != nil {
				v, n := protowire.ConsumeString(b)
				*dst = v
				return n, nil
			}
		}
		if num == 5 && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			d.IsWeighted = protowire.DecodeBool(v)
			return n, nil
		}
		return skip(num, typ, b)
	})
	if err != nil {
		return models.Dish{}, err
	}

	d.Price = decimal.Zero
	if price != "" {
		p, err := decimal.NewFromString(price)
		if err != nil {
			return models.Dish{}, fmt.Errorf("invalid price %q: %w", price, err)
		}
		d.Price = p
	}
	return d, nil
}

func EncodeOrder(o *models.Order) []byte {
	var b []byte
	b = appendString(b, 1, o.ID)
	for _, l := range o.Lines {
		var item []byte
		item = appendString(item, 1, l.DishID)
		item = appendString(item, 2, l.Quantity.String())
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, item)
	}
	return b
}

func DecodeOrder(b []byte) (*models.Order, error) {
	o := &models.Order{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			o.ID = v
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			l, err := decodeOrderItem(v)
			if err != nil {
				return 0, fmt.Errorf("order_items[%d]: %w", len(o.Lines), err)
			}
			o.Lines = append(o.Lines, l)
			return n, nil
		}
		return skip(num, typ, b)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func decodeOrderItem(b []byte) (models.OrderLine, error) {
	var (
		l        models.OrderLine
		quantity string
	)
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ == protowire.BytesType && (num == 1 || num == 2) {
			v, n := protowire.ConsumeString(b)
			if num == 1 {
				l.DishID = v
			} else {
				quantity = v
			}
			return n, nil
		}
		return skip(num, typ, b)
	})
	if err != nil {
		return models.OrderLine{}, err
	}

	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return models.OrderLine{}, fmt.Errorf("invalid quantity %q: %w", quantity, err)
	}
	l.Quantity = q
	return l, nil
}

func EncodeOrderResponse(r OrderResponse) []byte {
	var b []byte
	b = appendBool(b, 1, r.Success)
	b = appendString(b, 2, r.ErrorMessage)
	return b
}

func DecodeOrderResponse(b []byte) (OrderResponse, error) {
	var r OrderResponse
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Success = protowire.DecodeBool(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			r.ErrorMessage = v
			return n, nil
		}
		return skip(num, typ, b)
	})
	return r, err
}

// walk calls field for every field of a message. field consumes the
// value and returns its length, or a negative protowire error code.
func walk(b []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("failed to read tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		n, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("failed to read field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func skip(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	return protowire.ConsumeFieldValue(num, typ, b), nil
}

// proto3 omits scalar fields holding their zero value
func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}
