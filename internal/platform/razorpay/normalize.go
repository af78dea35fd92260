package razorpay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/karunahealth/earnings-reconciler/internal/domain/settlement"
)

// The REST API returns untyped JSON objects whose numeric fields arrive as
// float64, json.Number, or occasionally strings between API versions. The
// helpers below normalize those shapes once, at the boundary.

// collectionItems unwraps the standard {entity: "collection", items: [...]}
// envelope.
func collectionItems(body map[string]interface{}) ([]map[string]interface{}, error) {
	raw, ok := body["items"]
	if !ok {
		return nil, fmt.Errorf("response has no items field")
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("items field is not a list")
	}

	items := make([]map[string]interface{}, 0, len(list))
	for _, entry := range list {
		item, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("collection item is not an object")
		}
		items = append(items, item)
	}
	return items, nil
}

// parseBatch normalizes one settlement object
func parseBatch(item map[string]interface{}) (*settlement.Batch, error) {
	id := asString(item["id"])
	if id == "" {
		return nil, fmt.Errorf("settlement record has no id")
	}

	return &settlement.Batch{
		ID:        id,
		Status:    settlement.BatchStatus(asString(item["status"])),
		Amount:    asInt64(item["amount"]),
		Fees:      asInt64(item["fees"]),
		Tax:       asInt64(item["tax"]),
		UTR:       asString(item["utr"]),
		CreatedAt: time.Unix(asInt64(item["created_at"]), 0).UTC(),
	}, nil
}

// reconPaymentRef extracts the payment ref from one recon row when the row
// is a payment belonging to the given settlement. Recon rows carry the ref
// under entity_id in current reports and payment_id in older ones.
func reconPaymentRef(item map[string]interface{}, settlementID string) (string, bool) {
	if asString(item["settlement_id"]) != settlementID {
		return "", false
	}
	if t := asString(item["type"]); t != "" && t != "payment" {
		return "", false
	}

	if ref := asString(item["entity_id"]); ref != "" {
		return ref, true
	}
	if ref := asString(item["payment_id"]); ref != "" {
		return ref, true
	}
	return "", false
}

// parsePaymentStatus normalizes one payment object into the fallback lookup
// result. settlement_id is null until the payment settles.
func parsePaymentStatus(paymentRef string, body map[string]interface{}) *settlement.PaymentStatus {
	return &settlement.PaymentStatus{
		PaymentRef:    paymentRef,
		SettlementRef: asString(body["settlement_id"]),
		Status:        asString(body["status"]),
		Amount:        asInt64(body["amount"]),
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}
