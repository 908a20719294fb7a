package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// 并发压测工具：对下单接口打满并发请求，验证超卖保护。
// 正确的实现下，成功单数不会超过初始库存，最终库存不会为负。

type orderRequest struct {
	UserID string      `json:"userId"`
	Items  []orderItem `json:"items"`
}

type orderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type productResponse struct {
	ID    string `json:"id"`
	Stock int    `json:"stock"`
}

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "commerce server base URL")
		userID   = flag.String("user", "", "user id placing the orders")
		product  = flag.String("product", "", "product id to order")
		quantity = flag.Int("quantity", 1, "quantity per order")
		requests = flag.Int("requests", 50, "number of concurrent orders")
	)
	flag.Parse()

	if *userID == "" || *product == "" {
		log.Fatal("both -user and -product are required")
	}

	client := &http.Client{Timeout: 30 * time.Second}

	initialStock, err := fetchStock(client, *baseURL, *product)
	if err != nil {
		log.Fatalf("failed to fetch initial stock: %v", err)
	}

	var successCount, failCount atomic.Int32
	g, ctx := errgroup.WithContext(context.Background())

	start := time.Now()
	for i := 0; i < *requests; i++ {
		g.Go(func() error {
			ok, err := placeOrder(ctx, client, *baseURL, *userID, *product, *quantity)
			if err != nil {
				return err
			}
			if ok {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("stress test aborted: %v", err)
	}
	elapsed := time.Since(start)

	finalStock, err := fetchStock(client, *baseURL, *product)
	if err != nil {
		log.Fatalf("failed to fetch final stock: %v", err)
	}

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", *requests)
	fmt.Printf("Quantity/Order:   %d\n", *quantity)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Final Stock:      %d\n", finalStock)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	sold := int(success) * (*quantity)
	switch {
	case finalStock < 0:
		fmt.Println("FAIL: final stock is negative, overselling detected")
	case initialStock-sold != finalStock:
		fmt.Printf("FAIL: stock mismatch, expected %d got %d\n", initialStock-sold, finalStock)
	default:
		fmt.Println("PASS: no overselling, stock accounting is consistent")
	}
}

// placeOrder 下一单。返回 (true, nil) 表示下单成功，
// (false, nil) 表示被业务拒绝（库存不足等），error 只在请求本身失败时返回。
func placeOrder(ctx context.Context, client *http.Client, baseURL, userID, productID string, quantity int) (bool, error) {
	body, err := json.Marshal(orderRequest{
		UserID: userID,
		Items:  []orderItem{{ProductID: productID, Quantity: quantity}},
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusCreated, nil
}

func fetchStock(client *http.Client, baseURL, productID string) (int, error) {
	resp, err := client.Get(baseURL + "/products/" + productID)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d fetching product %s", resp.StatusCode, productID)
	}

	var product productResponse
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return 0, err
	}
	return product.Stock, nil
}
