package scraper

// Page paths relative to the site base URL.
const (
	accountsPath       = "/accounts"
	portfolioPath      = "/bs/portfolio"
	liabilityPath      = "/bs/liability"
	cashFlowPath       = "/cf"
	historyPath        = "/bs/history"
	spendingTargetPath = "/spending_targets/edit"
	groupsPath         = "/groups"
)

// Markup hooks. Kept together because the site changes them without notice.
const (
	accountTableSelector = "#account-table"
	accountRowSelector   = "#account-table tbody tr"
	accountLinkPrefix    = "/accounts/show/"
	refreshAllSelector   = "a.refresh-all"

	portfolioSectionSelector = "section.portfolio-section"
	portfolioRowSelector     = "table.portfolio-table tbody tr"
	liabilityTableSelector   = "#liability-table"
	liabilityRowSelector     = "#liability-table tbody tr"

	cashFlowTableSelector  = "#cf-detail-table"
	cashFlowRowSelector    = "#cf-detail-table tbody tr.transaction_list"
	transactionIDSelector  = `input[name="user_asset_act[id]"]`
	transferMarkerSelector = ".transfer"
	transferTargetSelector = ".transfer-target"
	grayoutClass           = "mf-grayout"

	groupSelectSelector = "#group_id_hash"

	historyTableSelector = "#history-table"

	spendingTargetRowSelector = "#spending-targets tbody tr"
)
