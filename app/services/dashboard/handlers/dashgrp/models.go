package dashgrp

import (
	"github.com/ardanlabs/ledgerview/business/core/chainview"
	"github.com/ardanlabs/ledgerview/business/core/submitter"
)

// form is the transaction form as the template sees it.
type form struct {
	Draft        submitter.Draft
	Label        string
	PendingLabel string
	Disabled     bool
	Failed       bool
}

// page is the data behind the dashboard template. View is nil when the
// chain was not fetched for this response.
type page struct {
	View         *chainview.View
	Form         form
	RefreshEvent string
}

func newPage(view *chainview.View, sub *submitter.Submitter, failed bool) page {
	return page{
		View: view,
		Form: form{
			Draft:        sub.Draft(),
			Label:        sub.Label(),
			PendingLabel: submitter.LabelPending,
			Disabled:     sub.Disabled(),
			Failed:       failed,
		},
		RefreshEvent: RefreshEvent,
	}
}
