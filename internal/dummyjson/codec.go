package dummyjson

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/product"
)

func encodeCredentials(creds auth.Credentials) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("username", func(e *jx.Encoder) { e.Str(creds.Username) })
		e.Field("password", func(e *jx.Encoder) { e.Str(creds.Password) })
	})
	return e.Bytes()
}

// decodeToken reads the session token from a login response. Older API
// versions call the field "token", current ones "accessToken"; "token" wins
// when both are present.
func decodeToken(data []byte) (string, error) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return "", ErrInvalidPayload
	}

	var token, access string
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "token":
			v, err := optString(d)
			token = v
			return err
		case "accessToken":
			v, err := optString(d)
			access = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return "", err
	}
	if token == "" {
		token = access
	}
	return token, nil
}

// decodeProducts reads the "products" array of a listing response. A body
// without the field, or with a non-array value, is ErrInvalidPayload.
func decodeProducts(data []byte) ([]product.Product, error) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return nil, ErrInvalidPayload
	}

	var (
		products []product.Product
		found    bool
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "products" {
			return d.Skip()
		}
		if d.Next() != jx.Array {
			return ErrInvalidPayload
		}
		found = true
		products = make([]product.Product, 0, 32)
		return d.Arr(func(d *jx.Decoder) error {
			p, err := decodeProduct(d)
			if err != nil {
				return errors.Wrapf(err, "product %d", len(products))
			}
			products = append(products, p)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrInvalidPayload
	}
	return products, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int()
		case "title":
			p.Title, err = optString(d)
		case "price":
			p.Price, err = decodePrice(d)
		case "brand":
			p.Brand, err = optString(d)
		case "category":
			p.Category, err = optString(d)
		case "description":
			p.Description, err = optString(d)
		case "thumbnail":
			p.Thumbnail, err = optString(d)
		case "images":
			p.Images, err = decodeStrings(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return p, err
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	num, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(num.String())
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func optString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}
