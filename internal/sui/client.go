package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bamaao/bassinet-server/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("bassinet-sui")

const (
	// nftModule and nftName identify the access NFT type minted for a
	// collection: {package_id}::bassinet_nft::BassinetNFT.
	nftModule = "bassinet_nft"
	nftName   = "BassinetNFT"

	// pageLimit is the page size used when enumerating owned objects.
	pageLimit = 100
)

// Client talks to a Sui fullnode over JSON-RPC. It covers only the
// owned-object queries the capability issuer needs.
type Client struct {
	rpcURL string
	http   *http.Client
}

// NewClient creates a Sui client against the given fullnode URL.
func NewClient(rpcURL string) *Client {
	return &Client{
		rpcURL: rpcURL,
		http:   &http.Client{Timeout: 15 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type objectData struct {
	ObjectID string `json:"objectId"`
	Type     string `json:"type"`
}

type objectResponse struct {
	Data *objectData `json:"data"`
}

type ownedObjectsPage struct {
	Data        []objectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("%w: failed to encode request: %v", models.ErrVerification, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrVerification, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrVerification, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: fullnode returned status %d", models.ErrVerification, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", models.ErrVerification, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%w: rpc error %d: %s", models.ErrVerification, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("%w: failed to decode result: %v", models.ErrVerification, err)
	}
	return nil
}

// getOwnedObjects fetches one page of objects owned by address.
func (c *Client) getOwnedObjects(ctx context.Context, address string, query map[string]interface{}, cursor *string, limit int) (*ownedObjectsPage, error) {
	var cursorParam interface{}
	if cursor != nil {
		cursorParam = *cursor
	}

	var page ownedObjectsPage
	err := c.call(ctx, "suix_getOwnedObjects", []interface{}{address, query, cursorParam, limit}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// OwnsNFT reports whether the wallet owns at least one access NFT
// minted by the given package. Existence check only: the fullnode
// filters by struct type and a single result suffices.
func (c *Client) OwnsNFT(ctx context.Context, walletAddress, packageID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "sui.owns_nft",
		trace.WithAttributes(attribute.String("package_id", packageID)),
	)
	defer span.End()

	query := map[string]interface{}{
		"filter": map[string]interface{}{
			"StructType": fmt.Sprintf("%s::%s::%s", packageID, nftModule, nftName),
		},
	}

	page, err := c.getOwnedObjects(ctx, walletAddress, query, nil, 1)
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	owned := len(page.Data) > 0
	span.SetAttributes(attribute.Bool("owned", owned))
	return owned, nil
}

// ListNFTs enumerates every access NFT the wallet owns, across all
// packages. Pages of 100 are fetched sequentially, feeding each
// returned cursor back in until the fullnode reports no further page.
// Items are filtered client-side on the parsed type string.
func (c *Client) ListNFTs(ctx context.Context, walletAddress string) ([]models.NFTObject, error) {
	ctx, span := tracer.Start(ctx, "sui.list_nfts")
	defer span.End()

	query := map[string]interface{}{
		"options": map[string]interface{}{"showType": true},
	}

	var results []models.NFTObject
	var cursor *string
	for {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%w: %v", models.ErrVerification, err)
		}

		page, err := c.getOwnedObjects(ctx, walletAddress, query, cursor, pageLimit)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		for _, item := range page.Data {
			if item.Data == nil {
				continue
			}
			nft, ok := parseNFT(item.Data)
			if ok {
				results = append(results, nft)
			}
		}

		if !page.HasNextPage {
			break
		}
		cursor = page.NextCursor
	}

	span.SetAttributes(attribute.Int("nft_count", len(results)))
	return results, nil
}

// parseNFT splits a fully-qualified object type into its
// (package, module, name) components and keeps only access NFTs.
func parseNFT(data *objectData) (models.NFTObject, bool) {
	parts := strings.Split(data.Type, "::")
	if len(parts) != 3 {
		return models.NFTObject{}, false
	}
	if parts[1] != nftModule || parts[2] != nftName {
		return models.NFTObject{}, false
	}
	return models.NFTObject{
		ObjectID:   data.ObjectID,
		ObjectType: data.Type,
		PackageID:  parts[0],
		Module:     parts[1],
		Name:       parts[2],
	}, true
}
