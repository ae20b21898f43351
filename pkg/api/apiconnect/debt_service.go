// Package apiconnect binds the api messages to Connect procedures of
// debtbook.v1.DebtService.
package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/debtbook/pkg/api"
)

// DebtServiceName is the fully-qualified name of the DebtService service.
const DebtServiceName = "debtbook.v1.DebtService"

// Procedure paths of DebtService, as they appear in the URL path.
const (
	DebtServiceCreateDebtProcedure          = "/debtbook.v1.DebtService/CreateDebt"
	DebtServiceGetDebtProcedure             = "/debtbook.v1.DebtService/GetDebt"
	DebtServiceListDebtsProcedure           = "/debtbook.v1.DebtService/ListDebts"
	DebtServiceEditDebtProcedure            = "/debtbook.v1.DebtService/EditDebt"
	DebtServiceDeleteDebtProcedure          = "/debtbook.v1.DebtService/DeleteDebt"
	DebtServiceRecordPaymentProcedure       = "/debtbook.v1.DebtService/RecordPayment"
	DebtServiceDeletePaymentProcedure       = "/debtbook.v1.DebtService/DeletePayment"
	DebtServiceListPaymentsProcedure        = "/debtbook.v1.DebtService/ListPayments"
	DebtServiceGetContactSummaryProcedure   = "/debtbook.v1.DebtService/GetContactSummary"
	DebtServiceListSummariesProcedure       = "/debtbook.v1.DebtService/ListSummaries"
	DebtServicePayOffAllProcedure           = "/debtbook.v1.DebtService/PayOffAll"
	DebtServiceWatchContactSummaryProcedure = "/debtbook.v1.DebtService/WatchContactSummary"
	DebtServiceWatchSummariesProcedure      = "/debtbook.v1.DebtService/WatchSummaries"
	DebtServiceWatchPaymentsProcedure       = "/debtbook.v1.DebtService/WatchPayments"
)

// DebtServiceClient is a client for the debtbook.v1.DebtService service.
type DebtServiceClient interface {
	CreateDebt(context.Context, *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.CreateDebtResponse], error)
	GetDebt(context.Context, *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error)
	ListDebts(context.Context, *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error)
	EditDebt(context.Context, *connect.Request[api.EditDebtRequest]) (*connect.Response[api.EditDebtResponse], error)
	DeleteDebt(context.Context, *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.DeleteDebtResponse], error)
	RecordPayment(context.Context, *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error)
	DeletePayment(context.Context, *connect.Request[api.DeletePaymentRequest]) (*connect.Response[api.DeletePaymentResponse], error)
	ListPayments(context.Context, *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error)
	GetContactSummary(context.Context, *connect.Request[api.GetContactSummaryRequest]) (*connect.Response[api.GetContactSummaryResponse], error)
	ListSummaries(context.Context, *connect.Request[api.ListSummariesRequest]) (*connect.Response[api.ListSummariesResponse], error)
	PayOffAll(context.Context, *connect.Request[api.PayOffAllRequest]) (*connect.Response[api.PayOffAllResponse], error)
	WatchContactSummary(context.Context, *connect.Request[api.WatchContactSummaryRequest]) (*connect.ServerStreamForClient[api.WatchContactSummaryResponse], error)
	WatchSummaries(context.Context, *connect.Request[api.WatchSummariesRequest]) (*connect.ServerStreamForClient[api.WatchSummariesResponse], error)
	WatchPayments(context.Context, *connect.Request[api.WatchPaymentsRequest]) (*connect.ServerStreamForClient[api.WatchPaymentsResponse], error)
}

// NewDebtServiceClient constructs a client for the debtbook.v1.DebtService
// service. Messages are always sent with the JSON codec.
//
// The URL supplied here should be the base URL for the Connect server
// (for example, http://localhost:8080).
func NewDebtServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) DebtServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append(opts, connect.WithCodec(api.Codec{}))
	return &debtServiceClient{
		createDebt:          connect.NewClient[api.CreateDebtRequest, api.CreateDebtResponse](httpClient, baseURL+DebtServiceCreateDebtProcedure, opts...),
		getDebt:             connect.NewClient[api.GetDebtRequest, api.GetDebtResponse](httpClient, baseURL+DebtServiceGetDebtProcedure, opts...),
		listDebts:           connect.NewClient[api.ListDebtsRequest, api.ListDebtsResponse](httpClient, baseURL+DebtServiceListDebtsProcedure, opts...),
		editDebt:            connect.NewClient[api.EditDebtRequest, api.EditDebtResponse](httpClient, baseURL+DebtServiceEditDebtProcedure, opts...),
		deleteDebt:          connect.NewClient[api.DeleteDebtRequest, api.DeleteDebtResponse](httpClient, baseURL+DebtServiceDeleteDebtProcedure, opts...),
		recordPayment:       connect.NewClient[api.RecordPaymentRequest, api.RecordPaymentResponse](httpClient, baseURL+DebtServiceRecordPaymentProcedure, opts...),
		deletePayment:       connect.NewClient[api.DeletePaymentRequest, api.DeletePaymentResponse](httpClient, baseURL+DebtServiceDeletePaymentProcedure, opts...),
		listPayments:        connect.NewClient[api.ListPaymentsRequest, api.ListPaymentsResponse](httpClient, baseURL+DebtServiceListPaymentsProcedure, opts...),
		getContactSummary:   connect.NewClient[api.GetContactSummaryRequest, api.GetContactSummaryResponse](httpClient, baseURL+DebtServiceGetContactSummaryProcedure, opts...),
		listSummaries:       connect.NewClient[api.ListSummariesRequest, api.ListSummariesResponse](httpClient, baseURL+DebtServiceListSummariesProcedure, opts...),
		payOffAll:           connect.NewClient[api.PayOffAllRequest, api.PayOffAllResponse](httpClient, baseURL+DebtServicePayOffAllProcedure, opts...),
		watchContactSummary: connect.NewClient[api.WatchContactSummaryRequest, api.WatchContactSummaryResponse](httpClient, baseURL+DebtServiceWatchContactSummaryProcedure, opts...),
		watchSummaries:      connect.NewClient[api.WatchSummariesRequest, api.WatchSummariesResponse](httpClient, baseURL+DebtServiceWatchSummariesProcedure, opts...),
		watchPayments:       connect.NewClient[api.WatchPaymentsRequest, api.WatchPaymentsResponse](httpClient, baseURL+DebtServiceWatchPaymentsProcedure, opts...),
	}
}

type debtServiceClient struct {
	createDebt          *connect.Client[api.CreateDebtRequest, api.CreateDebtResponse]
	getDebt             *connect.Client[api.GetDebtRequest, api.GetDebtResponse]
	listDebts           *connect.Client[api.ListDebtsRequest, api.ListDebtsResponse]
	editDebt            *connect.Client[api.EditDebtRequest, api.EditDebtResponse]
	deleteDebt          *connect.Client[api.DeleteDebtRequest, api.DeleteDebtResponse]
	recordPayment       *connect.Client[api.RecordPaymentRequest, api.RecordPaymentResponse]
	deletePayment       *connect.Client[api.DeletePaymentRequest, api.DeletePaymentResponse]
	listPayments        *connect.Client[api.ListPaymentsRequest, api.ListPaymentsResponse]
	getContactSummary   *connect.Client[api.GetContactSummaryRequest, api.GetContactSummaryResponse]
	listSummaries       *connect.Client[api.ListSummariesRequest, api.ListSummariesResponse]
	payOffAll           *connect.Client[api.PayOffAllRequest, api.PayOffAllResponse]
	watchContactSummary *connect.Client[api.WatchContactSummaryRequest, api.WatchContactSummaryResponse]
	watchSummaries      *connect.Client[api.WatchSummariesRequest, api.WatchSummariesResponse]
	watchPayments       *connect.Client[api.WatchPaymentsRequest, api.WatchPaymentsResponse]
}

func (c *debtServiceClient) CreateDebt(ctx context.Context, req *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.CreateDebtResponse], error) {
	return c.createDebt.CallUnary(ctx, req)
}

func (c *debtServiceClient) GetDebt(ctx context.Context, req *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error) {
	return c.getDebt.CallUnary(ctx, req)
}

func (c *debtServiceClient) ListDebts(ctx context.Context, req *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error) {
	return c.listDebts.CallUnary(ctx, req)
}

func (c *debtServiceClient) EditDebt(ctx context.Context, req *connect.Request[api.EditDebtRequest]) (*connect.Response[api.EditDebtResponse], error) {
	return c.editDebt.CallUnary(ctx, req)
}

func (c *debtServiceClient) DeleteDebt(ctx context.Context, req *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.DeleteDebtResponse], error) {
	return c.deleteDebt.CallUnary(ctx, req)
}

func (c *debtServiceClient) RecordPayment(ctx context.Context, req *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	return c.recordPayment.CallUnary(ctx, req)
}

func (c *debtServiceClient) DeletePayment(ctx context.Context, req *connect.Request[api.DeletePaymentRequest]) (*connect.Response[api.DeletePaymentResponse], error) {
	return c.deletePayment.CallUnary(ctx, req)
}

func (c *debtServiceClient) ListPayments(ctx context.Context, req *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error) {
	return c.listPayments.CallUnary(ctx, req)
}

func (c *debtServiceClient) GetContactSummary(ctx context.Context, req *connect.Request[api.GetContactSummaryRequest]) (*connect.Response[api.GetContactSummaryResponse], error) {
	return c.getContactSummary.CallUnary(ctx, req)
}

func (c *debtServiceClient) ListSummaries(ctx context.Context, req *connect.Request[api.ListSummariesRequest]) (*connect.Response[api.ListSummariesResponse], error) {
	return c.listSummaries.CallUnary(ctx, req)
}

func (c *debtServiceClient) PayOffAll(ctx context.Context, req *connect.Request[api.PayOffAllRequest]) (*connect.Response[api.PayOffAllResponse], error) {
	return c.payOffAll.CallUnary(ctx, req)
}

func (c *debtServiceClient) WatchContactSummary(ctx context.Context, req *connect.Request[api.WatchContactSummaryRequest]) (*connect.ServerStreamForClient[api.WatchContactSummaryResponse], error) {
	return c.watchContactSummary.CallServerStream(ctx, req)
}

func (c *debtServiceClient) WatchSummaries(ctx context.Context, req *connect.Request[api.WatchSummariesRequest]) (*connect.ServerStreamForClient[api.WatchSummariesResponse], error) {
	return c.watchSummaries.CallServerStream(ctx, req)
}

func (c *debtServiceClient) WatchPayments(ctx context.Context, req *connect.Request[api.WatchPaymentsRequest]) (*connect.ServerStreamForClient[api.WatchPaymentsResponse], error) {
	return c.watchPayments.CallServerStream(ctx, req)
}

// DebtServiceHandler is an implementation of the debtbook.v1.DebtService service.
type DebtServiceHandler interface {
	CreateDebt(context.Context, *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.CreateDebtResponse], error)
	GetDebt(context.Context, *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error)
	ListDebts(context.Context, *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error)
	EditDebt(context.Context, *connect.Request[api.EditDebtRequest]) (*connect.Response[api.EditDebtResponse], error)
	DeleteDebt(context.Context, *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.DeleteDebtResponse], error)
	RecordPayment(context.Context, *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error)
	DeletePayment(context.Context, *connect.Request[api.DeletePaymentRequest]) (*connect.Response[api.DeletePaymentResponse], error)
	ListPayments(context.Context, *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error)
	GetContactSummary(context.Context, *connect.Request[api.GetContactSummaryRequest]) (*connect.Response[api.GetContactSummaryResponse], error)
	ListSummaries(context.Context, *connect.Request[api.ListSummariesRequest]) (*connect.Response[api.ListSummariesResponse], error)
	PayOffAll(context.Context, *connect.Request[api.PayOffAllRequest]) (*connect.Response[api.PayOffAllResponse], error)
	WatchContactSummary(context.Context, *connect.Request[api.WatchContactSummaryRequest], *connect.ServerStream[api.WatchContactSummaryResponse]) error
	WatchSummaries(context.Context, *connect.Request[api.WatchSummariesRequest], *connect.ServerStream[api.WatchSummariesResponse]) error
	WatchPayments(context.Context, *connect.Request[api.WatchPaymentsRequest], *connect.ServerStream[api.WatchPaymentsResponse]) error
}

// NewDebtServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewDebtServiceHandler(svc DebtServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(opts, connect.WithCodec(api.Codec{}))
	handlers := map[string]http.Handler{
		DebtServiceCreateDebtProcedure:          connect.NewUnaryHandler(DebtServiceCreateDebtProcedure, svc.CreateDebt, opts...),
		DebtServiceGetDebtProcedure:             connect.NewUnaryHandler(DebtServiceGetDebtProcedure, svc.GetDebt, opts...),
		DebtServiceListDebtsProcedure:           connect.NewUnaryHandler(DebtServiceListDebtsProcedure, svc.ListDebts, opts...),
		DebtServiceEditDebtProcedure:            connect.NewUnaryHandler(DebtServiceEditDebtProcedure, svc.EditDebt, opts...),
		DebtServiceDeleteDebtProcedure:          connect.NewUnaryHandler(DebtServiceDeleteDebtProcedure, svc.DeleteDebt, opts...),
		DebtServiceRecordPaymentProcedure:       connect.NewUnaryHandler(DebtServiceRecordPaymentProcedure, svc.RecordPayment, opts...),
		DebtServiceDeletePaymentProcedure:       connect.NewUnaryHandler(DebtServiceDeletePaymentProcedure, svc.DeletePayment, opts...),
		DebtServiceListPaymentsProcedure:        connect.NewUnaryHandler(DebtServiceListPaymentsProcedure, svc.ListPayments, opts...),
		DebtServiceGetContactSummaryProcedure:   connect.NewUnaryHandler(DebtServiceGetContactSummaryProcedure, svc.GetContactSummary, opts...),
		DebtServiceListSummariesProcedure:       connect.NewUnaryHandler(DebtServiceListSummariesProcedure, svc.ListSummaries, opts...),
		DebtServicePayOffAllProcedure:           connect.NewUnaryHandler(DebtServicePayOffAllProcedure, svc.PayOffAll, opts...),
		DebtServiceWatchContactSummaryProcedure: connect.NewServerStreamHandler(DebtServiceWatchContactSummaryProcedure, svc.WatchContactSummary, opts...),
		DebtServiceWatchSummariesProcedure:      connect.NewServerStreamHandler(DebtServiceWatchSummariesProcedure, svc.WatchSummaries, opts...),
		DebtServiceWatchPaymentsProcedure:       connect.NewServerStreamHandler(DebtServiceWatchPaymentsProcedure, svc.WatchPayments, opts...),
	}
	return "/" + DebtServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// UnimplementedDebtServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedDebtServiceHandler struct{}

var errUnimplemented = errors.New("not implemented")

func unimplemented(procedure string) error {
	return connect.NewError(connect.CodeUnimplemented, errors.Join(errUnimplemented, errors.New(procedure)))
}

func (UnimplementedDebtServiceHandler) CreateDebt(context.Context, *connect.Request[api.CreateDebtRequest]) (*connect.Response[api.CreateDebtResponse], error) {
	return nil, unimplemented(DebtServiceCreateDebtProcedure)
}

func (UnimplementedDebtServiceHandler) GetDebt(context.Context, *connect.Request[api.GetDebtRequest]) (*connect.Response[api.GetDebtResponse], error) {
	return nil, unimplemented(DebtServiceGetDebtProcedure)
}

func (UnimplementedDebtServiceHandler) ListDebts(context.Context, *connect.Request[api.ListDebtsRequest]) (*connect.Response[api.ListDebtsResponse], error) {
	return nil, unimplemented(DebtServiceListDebtsProcedure)
}

func (UnimplementedDebtServiceHandler) EditDebt(context.Context, *connect.Request[api.EditDebtRequest]) (*connect.Response[api.EditDebtResponse], error) {
	return nil, unimplemented(DebtServiceEditDebtProcedure)
}

func (UnimplementedDebtServiceHandler) DeleteDebt(context.Context, *connect.Request[api.DeleteDebtRequest]) (*connect.Response[api.DeleteDebtResponse], error) {
	return nil, unimplemented(DebtServiceDeleteDebtProcedure)
}

func (UnimplementedDebtServiceHandler) RecordPayment(context.Context, *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	return nil, unimplemented(DebtServiceRecordPaymentProcedure)
}

func (UnimplementedDebtServiceHandler) DeletePayment(context.Context, *connect.Request[api.DeletePaymentRequest]) (*connect.Response[api.DeletePaymentResponse], error) {
	return nil, unimplemented(DebtServiceDeletePaymentProcedure)
}

func (UnimplementedDebtServiceHandler) ListPayments(context.Context, *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error) {
	return nil, unimplemented(DebtServiceListPaymentsProcedure)
}

func (UnimplementedDebtServiceHandler) GetContactSummary(context.Context, *connect.Request[api.GetContactSummaryRequest]) (*connect.Response[api.GetContactSummaryResponse], error) {
	return nil, unimplemented(DebtServiceGetContactSummaryProcedure)
}

func (UnimplementedDebtServiceHandler) ListSummaries(context.Context, *connect.Request[api.ListSummariesRequest]) (*connect.Response[api.ListSummariesResponse], error) {
	return nil, unimplemented(DebtServiceListSummariesProcedure)
}

func (UnimplementedDebtServiceHandler) PayOffAll(context.Context, *connect.Request[api.PayOffAllRequest]) (*connect.Response[api.PayOffAllResponse], error) {
	return nil, unimplemented(DebtServicePayOffAllProcedure)
}

func (UnimplementedDebtServiceHandler) WatchContactSummary(context.Context, *connect.Request[api.WatchContactSummaryRequest], *connect.ServerStream[api.WatchContactSummaryResponse]) error {
	return unimplemented(DebtServiceWatchContactSummaryProcedure)
}

func (UnimplementedDebtServiceHandler) WatchSummaries(context.Context, *connect.Request[api.WatchSummariesRequest], *connect.ServerStream[api.WatchSummariesResponse]) error {
	return unimplemented(DebtServiceWatchSummariesProcedure)
}

func (UnimplementedDebtServiceHandler) WatchPayments(context.Context, *connect.Request[api.WatchPaymentsRequest], *connect.ServerStream[api.WatchPaymentsResponse]) error {
	return unimplemented(DebtServiceWatchPaymentsProcedure)
}
