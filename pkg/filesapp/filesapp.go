package filesapp

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mumoshu/fmharness/pkg/entries"
	"github.com/mumoshu/fmharness/pkg/remote"
)

// DefaultExtensionID is the id of the file manager app under test.
const DefaultExtensionID = "hhaomjibdihmijegdhdafkllkbggdgoj"

// App drives the file manager through remote test utility calls.
type App struct {
	ExtensionID string
	Invoker     remote.Invoker
	Controller  remote.Controller
	Log         *log.Entry
}

func New(invoker remote.Invoker, controller remote.Controller, extensionID string, logger *log.Entry) *App {
	if extensionID == "" {
		extensionID = DefaultExtensionID
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &App{
		ExtensionID: extensionID,
		Invoker:     invoker,
		Controller:  controller,
		Log:         logger,
	}
}

// CallRemoteTestUtil invokes fn in the window appID and decodes its result into result, if non-nil.
func (a *App) CallRemoteTestUtil(ctx context.Context, fn, appID string, args []interface{}, result interface{}) error {
	raw, err := a.Invoker.Invoke(ctx, fn, appID, args)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return errors.Wrapf(err, "decoding result of %s: %s", fn, string(raw))
	}
	return nil
}

// AppState is passed to the app when opening a window. Nil is an empty state.
type AppState map[string]interface{}

// OpenNewWindow opens a main window, optionally starting in initialRoot, and returns its id.
func (a *App) OpenNewWindow(ctx context.Context, appState AppState, initialRoot string) (string, error) {
	state := AppState{}
	for k, v := range appState {
		state[k] = v
	}
	if initialRoot != "" {
		state["currentDirectoryURL"] = "filesystem:chrome-extension://" + a.ExtensionID + "/external" + initialRoot
	}

	var windowID string
	if err := a.CallRemoteTestUtil(ctx, "openMainWindow", "", []interface{}{state}, &windowID); err != nil {
		return "", errors.Wrap(err, "opening main window")
	}
	if windowID == "" {
		return "", errors.New("openMainWindow returned no window id")
	}
	return windowID, nil
}

func (a *App) WaitForWindow(ctx context.Context, windowIDPrefix string) (string, error) {
	var windowID string
	err := a.CallRemoteTestUtil(ctx, "waitForWindow", "", []interface{}{windowIDPrefix}, &windowID)
	return windowID, err
}

func (a *App) CloseWindowAndWait(ctx context.Context, windowID string) error {
	var closed bool
	if err := a.CallRemoteTestUtil(ctx, "closeWindowAndWait", "", []interface{}{windowID}, &closed); err != nil {
		return err
	}
	if !closed {
		return errors.Errorf("window %s was not closed", windowID)
	}
	return nil
}

func (a *App) WaitForWindowGeometry(ctx context.Context, windowID string, width, height int) error {
	return a.CallRemoteTestUtil(ctx, "waitForWindowGeometry", windowID, []interface{}{width, height}, nil)
}

func (a *App) ResizeWindow(ctx context.Context, windowID string, width, height int) error {
	return a.CallRemoteTestUtil(ctx, "resizeWindow", windowID, []interface{}{width, height}, nil)
}

func elementArgs(query, iframeQuery string) []interface{} {
	if iframeQuery == "" {
		return []interface{}{query}
	}
	return []interface{}{query, iframeQuery}
}

func (a *App) WaitForElement(ctx context.Context, windowID, query, iframeQuery string) error {
	return a.CallRemoteTestUtil(ctx, "waitForElement", windowID, elementArgs(query, iframeQuery), nil)
}

func (a *App) WaitForElementLost(ctx context.Context, windowID, query, iframeQuery string) error {
	return a.CallRemoteTestUtil(ctx, "waitForElementLost", windowID, elementArgs(query, iframeQuery), nil)
}

// FilesOptions controls how WaitForFiles compares the file list.
type FilesOptions struct {
	OrderCheck             bool `json:"orderCheck,omitempty"`
	IgnoreLastModifiedTime bool `json:"ignoreLastModifiedTime,omitempty"`
}

func (a *App) WaitForFiles(ctx context.Context, windowID string, expected [][]string, opts FilesOptions) error {
	return a.CallRemoteTestUtil(ctx, "waitForFiles", windowID, []interface{}{expected, opts}, nil)
}

// WaitForFileListChange waits until the list no longer has lengthBefore rows and returns it.
func (a *App) WaitForFileListChange(ctx context.Context, windowID string, lengthBefore int) ([][]string, error) {
	var rows [][]string
	err := a.CallRemoteTestUtil(ctx, "waitForFileListChange", windowID, []interface{}{lengthBefore}, &rows)
	return rows, err
}

func (a *App) WaitUntilTaskExecutes(ctx context.Context, windowID, taskID string) error {
	return a.CallRemoteTestUtil(ctx, "waitUntilTaskExecutes", windowID, []interface{}{taskID}, nil)
}

func (a *App) FakeKeyDown(ctx context.Context, windowID, query, keyIdentifier string, ctrlKey bool) error {
	var ok bool
	if err := a.CallRemoteTestUtil(ctx, "fakeKeyDown", windowID, []interface{}{query, keyIdentifier, ctrlKey}, &ok); err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("fakeKeyDown %s on %s was not dispatched", keyIdentifier, query)
	}
	return nil
}

func (a *App) FakeMouseClick(ctx context.Context, windowID, query string) error {
	var ok bool
	if err := a.CallRemoteTestUtil(ctx, "fakeMouseClick", windowID, []interface{}{query}, &ok); err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("fakeMouseClick on %s was not dispatched", query)
	}
	return nil
}

// SelectFile selects the file named fileName in the current directory.
func (a *App) SelectFile(ctx context.Context, windowID, fileName string) error {
	var ok bool
	if err := a.CallRemoteTestUtil(ctx, "selectFile", windowID, []interface{}{fileName}, &ok); err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("%s could not be selected", fileName)
	}
	return nil
}

func (a *App) GetErrorCount(ctx context.Context) (int, error) {
	var count int
	err := a.CallRemoteTestUtil(ctx, "getErrorCount", "", nil, &count)
	return count, err
}

// CheckIfNoErrorsOccurred fails if any app window logged an error.
func (a *App) CheckIfNoErrorsOccurred(ctx context.Context) error {
	count, err := a.GetErrorCount(ctx)
	if err != nil {
		return err
	}
	if count != 0 {
		return errors.Errorf("The error count is not 0. count=%d", count)
	}
	return nil
}

// AddEntries seeds set into each of volumes through the controller.
func (a *App) AddEntries(ctx context.Context, volumes []string, set []entries.Entry) error {
	for _, v := range volumes {
		if err := a.Controller.AddEntries(ctx, v, set); err != nil {
			return err
		}
	}
	return nil
}

// SetupAndWaitUntilReady opens the first window, seeds the basic local and
// drive entries and waits until the file list has been populated.
// It returns the window id and the initial file list.
func (a *App) SetupAndWaitUntilReady(ctx context.Context, appState AppState, initialRoot string) (string, [][]string, error) {
	g, ctx := errgroup.WithContext(ctx)

	windowIDs := make(chan string, 1)
	var windowID string
	var rows [][]string

	g.Go(func() error {
		id, err := a.OpenNewWindow(ctx, appState, initialRoot)
		if err != nil {
			close(windowIDs)
			return err
		}
		windowID = id
		windowIDs <- id
		return nil
	})
	g.Go(func() error {
		return a.AddEntries(ctx, []string{"local"}, entries.BasicLocal)
	})
	g.Go(func() error {
		return a.AddEntries(ctx, []string{"drive"}, entries.BasicDrive)
	})
	g.Go(func() error {
		id, ok := <-windowIDs
		if !ok {
			return nil
		}
		if err := a.WaitForElement(ctx, id, "#detail-table", ""); err != nil {
			return err
		}
		r, err := a.WaitForFileListChange(ctx, id, 0)
		if err != nil {
			return err
		}
		rows = r
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", nil, errors.Wrap(err, "setting up the app")
	}

	a.Log.WithFields(log.Fields{"app_id": windowID, "rows": len(rows)}).Debug("app is ready")

	return windowID, rows, nil
}
