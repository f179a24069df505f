package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// SessionServiceName is the fully-qualified name of the SessionService service.
const SessionServiceName = "defensetimer.session.v1.SessionService"

// Procedure paths of SessionService.
const (
	SessionServiceStartProcedure                  = "/defensetimer.session.v1.SessionService/Start"
	SessionServicePauseProcedure                  = "/defensetimer.session.v1.SessionService/Pause"
	SessionServiceRestartPhaseProcedure           = "/defensetimer.session.v1.SessionService/RestartPhase"
	SessionServiceResetSessionProcedure           = "/defensetimer.session.v1.SessionService/ResetSession"
	SessionServiceSkipPhaseProcedure              = "/defensetimer.session.v1.SessionService/SkipPhase"
	SessionServiceSetPresenterIndexProcedure      = "/defensetimer.session.v1.SessionService/SetPresenterIndex"
	SessionServiceAdvanceToNextPresenterProcedure = "/defensetimer.session.v1.SessionService/AdvanceToNextPresenter"
	SessionServiceGetStateProcedure               = "/defensetimer.session.v1.SessionService/GetState"
	SessionServiceGetConfigProcedure              = "/defensetimer.session.v1.SessionService/GetConfig"
	SessionServiceUpdateConfigProcedure           = "/defensetimer.session.v1.SessionService/UpdateConfig"
	SessionServiceListPresetsProcedure            = "/defensetimer.session.v1.SessionService/ListPresets"
	SessionServiceSavePresetProcedure             = "/defensetimer.session.v1.SessionService/SavePreset"
	SessionServiceApplyPresetProcedure            = "/defensetimer.session.v1.SessionService/ApplyPreset"
)

// SessionServiceHandler is the server side of SessionService.
type SessionServiceHandler interface {
	Start(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	Pause(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	RestartPhase(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	ResetSession(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	SkipPhase(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	SetPresenterIndex(context.Context, *connect.Request[SetPresenterIndexRequest]) (*connect.Response[StateResponse], error)
	AdvanceToNextPresenter(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	GetState(context.Context, *connect.Request[Empty]) (*connect.Response[StateResponse], error)
	GetConfig(context.Context, *connect.Request[Empty]) (*connect.Response[GetConfigResponse], error)
	UpdateConfig(context.Context, *connect.Request[UpdateConfigRequest]) (*connect.Response[StateResponse], error)
	ListPresets(context.Context, *connect.Request[Empty]) (*connect.Response[ListPresetsResponse], error)
	SavePreset(context.Context, *connect.Request[SavePresetRequest]) (*connect.Response[Preset], error)
	ApplyPreset(context.Context, *connect.Request[ApplyPresetRequest]) (*connect.Response[StateResponse], error)
}

// NewSessionServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewSessionServiceHandler(svc SessionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(SessionServiceStartProcedure, connect.NewUnaryHandler(SessionServiceStartProcedure, svc.Start, opts...))
	mux.Handle(SessionServicePauseProcedure, connect.NewUnaryHandler(SessionServicePauseProcedure, svc.Pause, opts...))
	mux.Handle(SessionServiceRestartPhaseProcedure, connect.NewUnaryHandler(SessionServiceRestartPhaseProcedure, svc.RestartPhase, opts...))
	mux.Handle(SessionServiceResetSessionProcedure, connect.NewUnaryHandler(SessionServiceResetSessionProcedure, svc.ResetSession, opts...))
	mux.Handle(SessionServiceSkipPhaseProcedure, connect.NewUnaryHandler(SessionServiceSkipPhaseProcedure, svc.SkipPhase, opts...))
	mux.Handle(SessionServiceSetPresenterIndexProcedure, connect.NewUnaryHandler(SessionServiceSetPresenterIndexProcedure, svc.SetPresenterIndex, opts...))
	mux.Handle(SessionServiceAdvanceToNextPresenterProcedure, connect.NewUnaryHandler(SessionServiceAdvanceToNextPresenterProcedure, svc.AdvanceToNextPresenter, opts...))
	mux.Handle(SessionServiceGetStateProcedure, connect.NewUnaryHandler(SessionServiceGetStateProcedure, svc.GetState, opts...))
	mux.Handle(SessionServiceGetConfigProcedure, connect.NewUnaryHandler(SessionServiceGetConfigProcedure, svc.GetConfig, opts...))
	mux.Handle(SessionServiceUpdateConfigProcedure, connect.NewUnaryHandler(SessionServiceUpdateConfigProcedure, svc.UpdateConfig, opts...))
	mux.Handle(SessionServiceListPresetsProcedure, connect.NewUnaryHandler(SessionServiceListPresetsProcedure, svc.ListPresets, opts...))
	mux.Handle(SessionServiceSavePresetProcedure, connect.NewUnaryHandler(SessionServiceSavePresetProcedure, svc.SavePreset, opts...))
	mux.Handle(SessionServiceApplyPresetProcedure, connect.NewUnaryHandler(SessionServiceApplyPresetProcedure, svc.ApplyPreset, opts...))

	return "/" + SessionServiceName + "/", mux
}

// Client calls SessionService over HTTP.
type Client struct {
	start                  *connect.Client[Empty, StateResponse]
	pause                  *connect.Client[Empty, StateResponse]
	restartPhase           *connect.Client[Empty, StateResponse]
	resetSession           *connect.Client[Empty, StateResponse]
	skipPhase              *connect.Client[Empty, StateResponse]
	setPresenterIndex      *connect.Client[SetPresenterIndexRequest, StateResponse]
	advanceToNextPresenter *connect.Client[Empty, StateResponse]
	getState               *connect.Client[Empty, StateResponse]
	getConfig              *connect.Client[Empty, GetConfigResponse]
	updateConfig           *connect.Client[UpdateConfigRequest, StateResponse]
	listPresets            *connect.Client[Empty, ListPresetsResponse]
	savePreset             *connect.Client[SavePresetRequest, Preset]
	applyPreset            *connect.Client[ApplyPresetRequest, StateResponse]
}

// NewClient constructs a client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &Client{
		start:                  connect.NewClient[Empty, StateResponse](httpClient, baseURL+SessionServiceStartProcedure, opts...),
		pause:                  connect.NewClient[Empty, StateResponse](httpClient, baseURL+SessionServicePauseProcedure, opts...),
		restartPhase:           connect.NewClient[Empty, StateResponse](httpClient, baseURL+SessionServiceRestartPhaseProcedure, opts...),
		resetSession:           connect.NewClient[Empty, StateResponse](httpClient, baseURL+SessionServiceResetSessionProcedure, opts...),
		skipPhase:              connect.NewClient[Empty, StateResponse](httpClient, baseURL+SessionServiceSkipPhaseProcedure, opts...),
		setPresenterIndex:      connect.NewClient[SetPresenterIndexRequest, StateResponse](httpClient, baseURL+SessionServiceSetPresenterIndexProcedure, opts...),
		advanceToNextPresenter: connect.NewClient[Empty, StateResponse](httpClient, baseURL+SessionServiceAdvanceToNextPresenterProcedure, opts...),
		getState:               connect.NewClient[Empty, StateResponse](httpClient, baseURL+SessionServiceGetStateProcedure, opts...),
		getConfig:              connect.NewClient[Empty, GetConfigResponse](httpClient, baseURL+SessionServiceGetConfigProcedure, opts...),
		updateConfig:           connect.NewClient[UpdateConfigRequest, StateResponse](httpClient, baseURL+SessionServiceUpdateConfigProcedure, opts...),
		listPresets:            connect.NewClient[Empty, ListPresetsResponse](httpClient, baseURL+SessionServiceListPresetsProcedure, opts...),
		savePreset:             connect.NewClient[SavePresetRequest, Preset](httpClient, baseURL+SessionServiceSavePresetProcedure, opts...),
		applyPreset:            connect.NewClient[ApplyPresetRequest, StateResponse](httpClient, baseURL+SessionServiceApplyPresetProcedure, opts...),
	}
}

func callState[Req any](ctx context.Context, c *connect.Client[Req, StateResponse], req *Req) (StateResponse, error) {
	res, err := c.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return StateResponse{}, err
	}
	return *res.Msg, nil
}

func (c *Client) Start(ctx context.Context) (StateResponse, error) {
	return callState(ctx, c.start, &Empty{})
}

func (c *Client) Pause(ctx context.Context) (StateResponse, error) {
	return callState(ctx, c.pause, &Empty{})
}

func (c *Client) RestartPhase(ctx context.Context) (StateResponse, error) {
	return callState(ctx, c.restartPhase, &Empty{})
}

func (c *Client) ResetSession(ctx context.Context) (StateResponse, error) {
	return callState(ctx, c.resetSession, &Empty{})
}

func (c *Client) SkipPhase(ctx context.Context) (StateResponse, error) {
	return callState(ctx, c.skipPhase, &Empty{})
}

func (c *Client) SetPresenterIndex(ctx context.Context, n int) (StateResponse, error) {
	return callState(ctx, c.setPresenterIndex, &SetPresenterIndexRequest{PresenterIndex: n})
}

func (c *Client) AdvanceToNextPresenter(ctx context.Context) (StateResponse, error) {
	return callState(ctx, c.advanceToNextPresenter, &Empty{})
}

func (c *Client) GetState(ctx context.Context) (StateResponse, error) {
	return callState(ctx, c.getState, &Empty{})
}

func (c *Client) UpdateConfig(ctx context.Context, req UpdateConfigRequest) (StateResponse, error) {
	return callState(ctx, c.updateConfig, &req)
}

func (c *Client) ApplyPreset(ctx context.Context, name string) (StateResponse, error) {
	return callState(ctx, c.applyPreset, &ApplyPresetRequest{Name: name})
}

func (c *Client) GetConfig(ctx context.Context) (GetConfigResponse, error) {
	res, err := c.getConfig.CallUnary(ctx, connect.NewRequest(&Empty{}))
	if err != nil {
		return GetConfigResponse{}, err
	}
	return *res.Msg, nil
}

func (c *Client) ListPresets(ctx context.Context) (ListPresetsResponse, error) {
	res, err := c.listPresets.CallUnary(ctx, connect.NewRequest(&Empty{}))
	if err != nil {
		return ListPresetsResponse{}, err
	}
	return *res.Msg, nil
}

func (c *Client) SavePreset(ctx context.Context, req SavePresetRequest) (Preset, error) {
	res, err := c.savePreset.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return Preset{}, err
	}
	return *res.Msg, nil
}
